// Package keyboard implements the KBSR/KBDR keyboard device, grounded on
// original_source/src/keyboard.c's ready-bit/data-register pair and the
// teacher's internal/vm/kbd.go for the Go concurrency idiom (a mutex
// instead of the original's single-threaded poll loop, so OnInput may be
// called from a goroutine other than the one dispatching bus accesses; the
// Simulator itself calls both from its own tick loop).
package keyboard

import (
	"sync"

	"github.com/jhollis/lc3sim/internal/device"
	"github.com/jhollis/lc3sim/internal/word"
)

const (
	KBSRAddr word.Word = 0xFE00
	KBDRAddr word.Word = 0xFE02

	readyBit           word.Word = 0x8000
	interruptEnableBit word.Word = 0x4000

	// InterruptVector and InterruptPriority are the keyboard's fixed
	// interrupt identity, per spec.md §6.
	InterruptVector   uint8 = 0x80
	InterruptPriority uint8 = 4
)

// Keyboard implements device.Device, device.InputDriver, and
// device.Starter: it accepts polled or pushed bytes via OnInput, exposes
// them through KBSR/KBDR, and raises an interrupt through its captured
// Host when input arrives while KBSR's interrupt-enable bit is set.
type Keyboard struct {
	mu   sync.Mutex
	kbsr word.Word
	kbdr word.Word

	host device.Host
}

// New creates a Keyboard with no pending input.
func New() *Keyboard {
	return &Keyboard{}
}

func (k *Keyboard) Addresses() []word.Word {
	return []word.Word{KBSRAddr, KBDRAddr}
}

func (k *Keyboard) AddressMethod() device.AddressMethod {
	return device.Separate
}

// Start captures host for later interrupt alerts, per device.Starter.
func (k *Keyboard) Start(host device.Host) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.host = host
}

// ReadRegister returns the current value of KBSR or KBDR. Reading KBDR
// clears the ready bit, exactly as keyboard_read_register does in the
// original, so a program polling KBSR never observes stale data as ready.
func (k *Keyboard) ReadRegister(addr word.Word) (word.Word, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch addr {
	case KBSRAddr:
		return k.kbsr, nil
	case KBDRAddr:
		val := k.kbdr
		k.kbsr &^= readyBit

		return val, nil
	default:
		return 0, nil
	}
}

// WriteRegister accepts writes to KBSR only; KBDR is read-only to
// software, matching the original's keyboard_write_register. The ready
// bit is preserved across the write regardless of the value given,
// since only OnInput/a KBDR read may change it, per spec.md §6.
func (k *Keyboard) WriteRegister(addr word.Word, val word.Word) error {
	if addr == KBSRAddr {
		k.mu.Lock()
		k.kbsr = (val &^ readyBit) | (k.kbsr & readyBit)
		k.mu.Unlock()
	}

	return nil
}

// OnInput delivers one byte of external input. If a previous byte is still
// pending (the ready bit is set and hasn't been consumed by a KBDR read),
// the new byte is dropped, matching the original's "make sure last data
// has been read" guard. If KBSR's interrupt-enable bit is set, the new
// input alerts an interrupt through the captured Host, per spec.md §6.
func (k *Keyboard) OnInput(b byte) {
	k.mu.Lock()

	if k.kbsr&readyBit != 0 {
		k.mu.Unlock()
		return
	}

	k.kbdr = word.Word(b)
	k.kbsr |= readyBit

	alert := k.kbsr&interruptEnableBit != 0
	host := k.host
	k.mu.Unlock()

	if alert && host != nil {
		host.AlertInterrupt(InterruptVector, InterruptPriority)
	}
}

// Ready reports whether unread input is pending, for tests.
func (k *Keyboard) Ready() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.kbsr&readyBit != 0
}
