// Package cpu implements the LC-3 instruction interpreter: registers,
// processor status, the fetch/decode/execute cycle, exception dispatch, and
// interrupt acceptance.
//
// The fetch/execute pipeline is grounded on the teacher's operation
// interface hierarchy (internal/vm/ops.go), re-expressed here as one
// execXxx method per opcode, selected by a switch on the decoded opcode
// (see execute.go). Exception and interrupt vectoring follow
// original_source/src/cpu.c's execute_exception/execute_interrupt exactly,
// since the teacher's Go port simplifies that sequence in a way spec.md's
// invariants rule out (see SPEC_FULL.md §4.3).
package cpu

import (
	"errors"
	"fmt"

	"github.com/jhollis/lc3sim/internal/bus"
	"github.com/jhollis/lc3sim/internal/intr"
	"github.com/jhollis/lc3sim/internal/log"
	"github.com/jhollis/lc3sim/internal/word"
)

// Reserved addresses, per spec.md §3.
const (
	// VectorTableLow/VectorTableHigh span both the trap vector table
	// (mem[trapvec8], 0x0000-0x00FF) and the interrupt/exception vector
	// table (mem[0x0100|vec], 0x0100-0x01FF): the two overlap in address
	// range by design, per spec.md §6.
	VectorTableLow  word.Word = 0x0000
	VectorTableHigh word.Word = 0x01FF
	SupervisorStack word.Word = 0x2FFF
	UserSpaceLow    word.Word = 0x3000
	MCRAddr         word.Word = 0xFFFE

	// InterruptVectorTable is OR'd with an interrupt or exception vector
	// to address its service routine pointer, a table distinct from (but
	// overlapping the address range of) the trap vector table TRAP
	// consults directly. See spec.md §4.3/§6.
	InterruptVectorTable word.Word = 0x0100
)

// Exception vectors. spec.md §2 names exactly two latched internal
// exception flags: privilege violation and illegal opcode.
const (
	VectorPrivilege uint8 = 0x00
	VectorIllegalOp uint8 = 0x01
)

// ErrHalted is returned by Step after the MCR clock-enable bit has been
// cleared; the caller's run loop should stop.
var ErrHalted = errors.New("cpu: halted")

// exception is raised internally by an operation and serviced by Step
// before the next fetch, exactly as interruptableError is handled in the
// teacher's internal/vm/intr.go, but using the original C's PSR-reset
// sequence for the actual vectoring.
type exception struct {
	vector uint8
}

func (e *exception) Error() string {
	return fmt.Sprintf("cpu: exception x%02X", e.vector)
}

// CPU is the LC-3 register file, processor status, and instruction
// interpreter. It owns no devices directly; all memory and I/O access goes
// through the Bus.
type CPU struct {
	Reg [word.NumRegs]word.Word
	PC  word.Word
	PSR PSR
	USP word.Word
	SSP word.Word

	Bus  *bus.Bus
	Intr *intr.Controller
	log  *log.Logger
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithLogger overrides the CPU's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *CPU) { c.log = l }
}

// New creates a CPU wired to the given bus and interrupt controller, with
// PC at the conventional user program load address and PSR in user mode,
// priority 0, condition Z.
func New(b *bus.Bus, ic *intr.Controller, opts ...Option) *CPU {
	c := &CPU{
		Bus:  b,
		Intr: ic,
		PC:   UserSpaceLow,
		PSR:  PSR(StatusUser).SetCondition(word.ConditionZero),
		USP:  SupervisorStack,
		SSP:  SupervisorStack,
		log:  log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Step executes exactly one instruction: fetching, decoding, and
// executing, then servicing any exception the operation raised. It
// returns ErrHalted once the clock-enable bit in the MCR has been
// cleared.
//
// Step does not itself decide whether to accept a pending interrupt —
// per spec.md §2's run loop, that decision belongs to the Simulator,
// which peeks the Interrupt Controller once per tick (after Step,
// input fan-out, and on-tick hooks) and calls AcceptInterrupt directly
// when the pending priority strictly exceeds the CPU's current one.
func (c *CPU) Step() error {
	fetched, err := c.fetch()
	if err != nil {
		var exc *exception
		if errors.As(err, &exc) {
			c.acceptException(exc.vector)
			return nil
		}

		return err
	}

	inst := Instruction(fetched)

	if err := c.execute(inst); err != nil {
		var exc *exception
		if errors.As(err, &exc) {
			c.acceptException(exc.vector)
			return nil
		}

		return err
	}

	mcr, err := c.Bus.Read(MCRAddr)
	if err != nil {
		return err
	}

	if !mcr.Bit(15) {
		return ErrHalted
	}

	return nil
}

// Run steps the CPU until ErrHalted or another error is returned.
func (c *CPU) Run() error {
	for {
		if err := c.Step(); err != nil {
			if errors.Is(err, ErrHalted) {
				return nil
			}

			return err
		}
	}
}

// fetch reads the instruction at PC and advances it.
func (c *CPU) fetch() (word.Word, error) {
	w, err := c.Bus.Read(c.PC)
	c.PC++

	if err != nil {
		return 0, err
	}

	return w, nil
}

// readMem and writeMem perform LD/LDI/LDR/ST/STI/STR's data references.
// spec.md names no memory-protection fault distinct from privilege
// violation and illegal opcode (§2), and TRAP never elevates privilege
// (§3), so a data reference below user space is ordinary once a trap has
// vectored a user-mode program into the resident monitor's service
// routines — there is no separate access-control check here.
func (c *CPU) readMem(addr word.Word) (word.Word, error) {
	return c.Bus.Read(addr)
}

func (c *CPU) writeMem(addr word.Word, val word.Word) error {
	return c.Bus.Write(addr, val)
}

// acceptException vectors to an exception service routine. Exceptions
// preserve the processor's current priority level, unlike interrupts, per
// execute_exception in the original.
func (c *CPU) acceptException(vector uint8) {
	c.enterSystem(vector, c.PSR.Priority())
}

// AcceptInterrupt vectors to an interrupt service routine at the accepted
// interrupt's own priority level, per execute_interrupt in the original.
// Called by the Simulator once it has decided, per spec.md §2 step (iv),
// that the pending interrupt's priority strictly exceeds the CPU's
// current one.
func (c *CPU) AcceptInterrupt(vector uint8, priority uint8) {
	c.enterSystem(vector, priority)
}

// enterSystem implements the shared tail of execute_interrupt and
// execute_exception: if currently in user mode, swap the stack pointer to
// the supervisor stack; push PSR then PC on it; reset PSR to supervisor
// mode at the given priority with condition codes cleared; load PC from
// the vector table.
//
// This fully resets PSR on every entry, matching the original C exactly.
// The teacher's Go port (internal/vm/intr.go) never touches PSR at all,
// which silently leaves the outgoing mode/priority/condition bits visible
// to the service routine; we follow the original and spec.md instead.
func (c *CPU) enterSystem(vector uint8, priority uint8) {
	wasUser := !c.PSR.Privileged()

	if wasUser {
		c.USP = c.Reg[word.R6]
		c.Reg[word.R6] = c.SSP
	}

	c.push(c.PSR.Word())
	c.push(c.PC)

	c.PSR = PSR(StatusSystem).SetPriority(priority)

	// Interrupt and exception vectors live at mem[0x0100|vec], a distinct
	// table from the trap vector table TRAP consults directly at
	// mem[trapvec8] (spec.md §4.3, §6), matching
	// original_source/src/cpu.c's INTERRUPT_VECTOR_TABLE | vec_location.
	target, err := c.Bus.Read(InterruptVectorTable | word.Word(vector))
	if err != nil {
		target = 0
	}

	c.PC = target
}

// RTI returns from an interrupt or exception service routine: pops PC then
// PSR from the current (supervisor) stack, and if the restored PSR selects
// user mode, swaps R6 back from the supervisor stack pointer to the user
// stack pointer. RTI executed outside supervisor mode is itself a
// privilege-mode exception.
func (c *CPU) RTI() error {
	if !c.PSR.Privileged() {
		return &exception{vector: VectorPrivilege}
	}

	c.PC = c.pop()
	restored := PSR(c.pop())

	if !restored.Privileged() {
		c.SSP = c.Reg[word.R6]
		c.Reg[word.R6] = c.USP
	}

	c.PSR = restored

	return nil
}

func (c *CPU) push(val word.Word) {
	c.Reg[word.R6]--
	_ = c.Bus.Write(c.Reg[word.R6], val)
}

func (c *CPU) pop() word.Word {
	val, _ := c.Bus.Read(c.Reg[word.R6])
	c.Reg[word.R6]++

	return val
}
