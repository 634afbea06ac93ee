// Package sim assembles the Bus, Interrupt Controller, CPU, and devices
// into a runnable machine, and implements the program-loading, debugger,
// and run-loop operations the debugger and CLI drive it through.
//
// Grounded on the teacher's internal/vm/vm.go New/OptionFn construction
// pattern and internal/vm/exec.go's Run/Step pair, rebuilt around this
// spec's Bus/Controller/Device split instead of the teacher's flat MMIO
// map. The tick-driven run loop (input fan-out, on-tick hooks, interrupt
// accept/reject) follows spec.md §2's `run` control flow exactly, which in
// turn mirrors the original's sim.c main loop.
package sim

import (
	"errors"
	"fmt"

	"github.com/jhollis/lc3sim/internal/bus"
	"github.com/jhollis/lc3sim/internal/cpu"
	"github.com/jhollis/lc3sim/internal/device"
	"github.com/jhollis/lc3sim/internal/devices/display"
	"github.com/jhollis/lc3sim/internal/devices/keyboard"
	"github.com/jhollis/lc3sim/internal/intr"
	"github.com/jhollis/lc3sim/internal/ioline"
	"github.com/jhollis/lc3sim/internal/log"
	"github.com/jhollis/lc3sim/internal/monitor"
	"github.com/jhollis/lc3sim/internal/objcode"
	"github.com/jhollis/lc3sim/internal/word"
)

// Simulator is the assembled machine: bus, interrupt controller, CPU, and
// the bundled keyboard/display devices. An I/O Channel (a terminal or an
// in-memory buffer) is wired in separately via SetChannel so the caller
// picks the ioline.Channel implementation; Keyboard()/Display() remain
// available for callers (and tests) that want to drive a device directly.
type Simulator struct {
	Bus  *bus.Bus
	Intr *intr.Controller
	CPU  *cpu.CPU

	keyboard *keyboard.Keyboard
	display  *display.Display
	host     *simHost

	inputDrivers []device.InputDriver
	tickers      []device.Ticker

	channel ioline.Channel

	log *log.Logger
}

// Option configures a Simulator at construction.
type Option func(*Simulator)

// WithLogger overrides the simulator's logger, propagated to the bus and
// CPU as well.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// New assembles a Simulator with the bundled keyboard and display attached
// and the resident monitor's trap routines and vector table installed.
func New(opts ...Option) *Simulator {
	s := &Simulator{log: log.DefaultLogger()}

	for _, opt := range opts {
		opt(s)
	}

	s.Bus = bus.New(bus.WithLogger(s.log))
	s.Intr = intr.New()
	s.CPU = cpu.New(s.Bus, s.Intr, cpu.WithLogger(s.log))
	s.host = &simHost{intr: s.Intr}

	s.keyboard = keyboard.New()
	s.display = display.New()

	if err := s.attach(s.keyboard); err != nil {
		panic(fmt.Sprintf("sim: attach keyboard: %s", err))
	}

	if err := s.attach(s.display); err != nil {
		panic(fmt.Sprintf("sim: attach display: %s", err))
	}

	// Clock enabled at boot, per spec.md's MCR convention (bit 15 set).
	_ = s.Bus.Write(cpu.MCRAddr, 0x8000)

	s.loadMonitor()

	return s
}

// simHost implements device.Host, the facade a device uses to emit output
// and raise interrupts without holding a reference back to the Simulator
// itself, grounded on struct host in device.h/sim.c.
type simHost struct {
	intr    *intr.Controller
	channel ioline.Channel
}

func (h *simHost) WriteOutput(b byte) {
	if h.channel != nil {
		_ = h.channel.PutChar(b)
	}
}

func (h *simHost) AlertInterrupt(vector uint8, priority uint8) {
	v := intr.Vector(vector)
	h.intr.SetPriority(v, intr.Priority(priority))
	h.intr.Alert(v)
}

// attach registers dev's declared address intervals on the bus, calls its
// Start hook if it implements device.Starter, and subscribes it to the
// input/on-tick fan-out lists if it implements device.InputDriver/Ticker,
// exactly as spec.md §4.5's attach(device) describes.
func (s *Simulator) attach(dev device.Device) error {
	if err := s.Bus.AttachDevice(dev); err != nil {
		return err
	}

	if starter, ok := dev.(device.Starter); ok {
		starter.Start(s.host)
	}

	if in, ok := dev.(device.InputDriver); ok {
		s.inputDrivers = append(s.inputDrivers, in)
	}

	if t, ok := dev.(device.Ticker); ok {
		s.tickers = append(s.tickers, t)
	}

	return nil
}

func (s *Simulator) loadMonitor() {
	for _, r := range monitor.Routines() {
		for i, w := range r.Code {
			s.Bus.WriteMemory(r.Orig+word.Word(i), w)
		}

		s.Bus.WriteMemory(r.Vec, r.Orig)
	}
}

// Keyboard returns the bundled keyboard device, mostly for tests that feed
// it input directly rather than through a wired Channel.
func (s *Simulator) Keyboard() *keyboard.Keyboard {
	return s.keyboard
}

// Display returns the bundled display device, so a caller can register a
// Listen callback to observe program output directly.
func (s *Simulator) Display() *display.Display {
	return s.display
}

// SetChannel wires channel as the Simulator's I/O Channel: Step polls it
// for one input byte per tick to fan out to every attached InputDriver,
// and the Host forwards WriteOutput calls (DDR writes) to it.
func (s *Simulator) SetChannel(channel ioline.Channel) {
	s.channel = channel
	s.host.channel = channel
}

// Attach registers an additional device beyond the bundled keyboard and
// display, per spec.md §4.5's attach(device).
func (s *Simulator) Attach(dev device.Device) error {
	return s.attach(dev)
}

// LoadProgram places an object code image in memory at its origin address
// and points PC at it, ready to run.
func (s *Simulator) LoadProgram(oc objcode.ObjectCode) {
	for i, w := range oc.Code {
		s.Bus.WriteMemory(oc.Orig+word.Word(i), w)
	}

	s.CPU.PC = oc.Orig
}

// AddressResultKind tags the outcome of a debugger-safe address read.
type AddressResultKind uint8

const (
	// ResultValue is a plain memory cell.
	ResultValue AddressResultKind = iota
	// ResultDeviceRegister is a cell within an attached device's address
	// range; Value still comes from the backing RAM cell, not a device
	// read, so inspecting it never triggers a device's read side effects.
	ResultDeviceRegister
	// ResultOutOfBounds means addr did not fit in the 16-bit address space.
	ResultOutOfBounds
)

// AddressResult is the result of ReadAddress.
type AddressResult struct {
	Kind  AddressResultKind
	Value word.Word
}

// ReadAddress performs a debugger-safe read of addr: it reports whether
// addr falls within a device's register window, but the value it returns
// always comes from the backing RAM cell (Bus.ReadMemory), never a
// device's ReadRegister, so merely inspecting memory can never trigger a
// device's read side effects (e.g. draining a keyboard buffer). Per
// spec.md §4.5.
func (s *Simulator) ReadAddress(addr uint32) AddressResult {
	if addr > 0xFFFF {
		return AddressResult{Kind: ResultOutOfBounds}
	}

	a := word.Word(addr)
	val := s.Bus.ReadMemory(a)

	if s.Bus.IsDevice(a) {
		return AddressResult{Kind: ResultDeviceRegister, Value: val}
	}

	return AddressResult{Kind: ResultValue, Value: val}
}

// ErrOutOfBounds is returned by WriteAddress when addr does not fit in the
// 16-bit address space.
var ErrOutOfBounds = errors.New("sim: address out of bounds")

// WriteAddress performs an unconditional Bus write of val to addr,
// dispatching to a device's WriteRegister if addr falls within one,
// unlike WriteMemory which always bypasses dispatch. Per spec.md §4.5.
func (s *Simulator) WriteAddress(addr uint32, val word.Word) error {
	if addr > 0xFFFF {
		return fmt.Errorf("%w: %d", ErrOutOfBounds, addr)
	}

	return s.Bus.Write(word.Word(addr), val)
}

// ReadMemory reads a memory cell directly, bypassing device dispatch, for
// the object loader and for cases that must never trigger a device's read
// side effects.
func (s *Simulator) ReadMemory(addr word.Word) word.Word {
	return s.Bus.ReadMemory(addr)
}

// WriteMemory writes a memory cell directly, bypassing device dispatch,
// for the object loader and for tests that poke memory without driving a
// device's write side effects.
func (s *Simulator) WriteMemory(addr word.Word, val word.Word) {
	s.Bus.WriteMemory(addr, val)
}

// ReadRegister returns the value of general-purpose register r.
func (s *Simulator) ReadRegister(r word.Register) word.Word {
	return s.CPU.Reg[r]
}

// WriteRegister sets general-purpose register r.
func (s *Simulator) WriteRegister(r word.Register, val word.Word) {
	s.CPU.Reg[r] = val
}

// PC returns the program counter.
func (s *Simulator) PC() word.Word { return s.CPU.PC }

// SetPC sets the program counter.
func (s *Simulator) SetPC(val word.Word) { s.CPU.PC = val }

// PSR returns the processor status register's raw bit pattern.
func (s *Simulator) PSR() word.Word { return s.CPU.PSR.Word() }

// SetPSR sets the processor status register from a raw bit pattern.
func (s *Simulator) SetPSR(val word.Word) { s.CPU.PSR = cpu.PSR(val) }

// USP returns the saved user stack pointer.
func (s *Simulator) USP() word.Word { return s.CPU.USP }

// SetUSP sets the saved user stack pointer.
func (s *Simulator) SetUSP(val word.Word) { s.CPU.USP = val }

// SSP returns the saved supervisor stack pointer.
func (s *Simulator) SSP() word.Word { return s.CPU.SSP }

// SetSSP sets the saved supervisor stack pointer.
func (s *Simulator) SetSSP(val word.Word) { s.CPU.SSP = val }

// Step runs one tick of the control flow spec.md §2 describes for `run`:
// (i) the CPU executes one instruction (fetch/execute, servicing any
// latched exception); (ii) one input byte is polled from the wired
// Channel, if any, and fanned out to every attached InputDriver; (iii)
// every attached Ticker's OnTick runs; (iv) the Interrupt Controller is
// checked, and if the highest pending priority strictly exceeds the CPU's
// current priority, it is dequeued and the CPU accepts it. The CPU itself
// never decides whether to accept an interrupt; only Step does.
func (s *Simulator) Step() error {
	if err := s.CPU.Step(); err != nil {
		return err
	}

	if s.channel != nil {
		if b, ok := s.channel.GetChar(); ok {
			for _, in := range s.inputDrivers {
				in.OnInput(b)
			}
		}
	}

	for _, t := range s.tickers {
		t.OnTick()
	}

	if vector, priority, ok := s.Intr.Check(intr.Priority(s.CPU.PSR.Priority())); ok {
		s.CPU.AcceptInterrupt(uint8(vector), uint8(priority))
	}

	return nil
}

// Run ticks the machine until it halts or an error occurs.
func (s *Simulator) Run() error {
	for {
		if err := s.Step(); err != nil {
			if errors.Is(err, cpu.ErrHalted) {
				return nil
			}

			return err
		}
	}
}
