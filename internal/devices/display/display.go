// Package display implements the DSR/DDR console output device, grounded
// on original_source/display.c (DSR always ready, DDR writes fanned out to
// the host's output stream) and the teacher's internal/vm/disp.go
// listener-callback idiom for forwarding writes to whatever is actually
// backing the console in this process (a terminal, a test buffer, ...).
package display

import (
	"sync"

	"github.com/jhollis/lc3sim/internal/device"
	"github.com/jhollis/lc3sim/internal/word"
)

const (
	DSRAddr word.Word = 0xFE04
	DDRAddr word.Word = 0xFE06

	readyBit word.Word = 0x8000
)

// Listener is notified of every byte written to DDR.
type Listener func(b byte)

// Display implements device.Device and device.Starter. DSR always reports
// ready: this simulator does not model output latency, matching the
// original's "TODO: implement a timer to simulate output delay" left
// unaddressed.
type Display struct {
	mu        sync.Mutex
	listeners []Listener
	host      device.Host
}

// New creates a Display with no listeners attached.
func New() *Display {
	return &Display{}
}

func (d *Display) Addresses() []word.Word {
	return []word.Word{DSRAddr, DDRAddr}
}

func (d *Display) AddressMethod() device.AddressMethod {
	return device.Separate
}

// Start captures host, the channel DDR writes are emitted through in
// addition to any registered Listen callbacks, per device.Starter.
func (d *Display) Start(host device.Host) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.host = host
}

// Listen registers fn to be called with every byte written to DDR. Used to
// wire the display to a terminal writer or a test buffer.
func (d *Display) Listen(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, fn)
}

func (d *Display) ReadRegister(addr word.Word) (word.Word, error) {
	if addr == DSRAddr {
		return readyBit, nil
	}

	return 0, nil
}

// WriteRegister accepts a write to DDR and emits the low byte via the
// captured Host (original_source/src/plugins/display.c's
// display_write_register calls host->write_output directly) as well as
// every registered Listen callback, so a caller that only has the device
// in hand (no Host, e.g. a unit test) can still observe output. Writes to
// DSR are ignored, matching the original's read-only DSR register.
func (d *Display) WriteRegister(addr word.Word, val word.Word) error {
	if addr != DDRAddr {
		return nil
	}

	d.mu.Lock()
	host := d.host
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	b := val.Low()

	if host != nil {
		host.WriteOutput(b)
	}

	for _, fn := range listeners {
		fn(b)
	}

	return nil
}
