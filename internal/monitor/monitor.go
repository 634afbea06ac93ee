// Package monitor provides a small resident system image standing in for
// the operating system a real LC-3 program expects: service routines for
// the HALT, OUT, PUTS, and IN traps, plus the vector-table entries that
// point TRAP dispatch at them.
//
// The routines are hand-encoded machine words rather than assembled from
// source text. The teacher repo (smoynes-elsie) generates its equivalent
// internal/monitor/traps.go image with its own internal/asm assembler
// package; that assembler is dropped from this module (see DESIGN.md), so
// routines are built directly as Instruction words here using a small
// label-and-fixup builder (below) instead of hand-computing two's
// complement branch offsets, which is exactly the bookkeeping a real
// assembler's second pass does, kept local since nothing else in this
// module needs a general-purpose one. The polling-loop structure itself is
// grounded on original_source/src/input_output.c's console read/write
// loops.
package monitor

import (
	"github.com/jhollis/lc3sim/internal/cpu"
	"github.com/jhollis/lc3sim/internal/devices/display"
	"github.com/jhollis/lc3sim/internal/devices/keyboard"
	"github.com/jhollis/lc3sim/internal/word"
)

// Trap vectors, per the LC-3 ISA's conventional assignments.
const (
	TrapHALT word.Word = 0x25
	TrapOUT  word.Word = 0x21
	TrapPUTS word.Word = 0x22
	TrapIN   word.Word = 0x23
)

// Routine addresses in the reserved system page, below user space.
const (
	haltOrig word.Word = 0x0200
	outOrig  word.Word = 0x0210
	putsOrig word.Word = 0x0220
	inOrig   word.Word = 0x0240
)

// Routine is one named block of resident code plus the vector that should
// point to it.
type Routine struct {
	Name string
	Vec  word.Word
	Orig word.Word
	Code []word.Word
}

// builder assembles a routine's words, resolving labeled branch/LDI/STI
// targets to PC-relative offsets once every word is known.
type builder struct {
	words  []word.Word
	labels map[string]int
	fixups []fixup
}

type fixup struct {
	index int
	label string
	bits  uint8
}

func newBuilder() *builder {
	return &builder{labels: map[string]int{}}
}

// label marks the next emitted word's index under name.
func (b *builder) label(name string) *builder {
	b.labels[name] = len(b.words)
	return b
}

// emit appends a plain word (an instruction with no relative field, or a
// data literal).
func (b *builder) emit(w word.Word) *builder {
	b.words = append(b.words, w)
	return b
}

// rel emits opcode|rest with a placeholder relative field, to be filled in
// by resolve once target's index is known. bits is the field width (9 for
// BR/LD/ST/LEA/LDI/STI, 11 for JSR).
func (b *builder) rel(opcode cpu.Opcode, rest word.Word, target string, bits uint8) *builder {
	b.fixups = append(b.fixups, fixup{index: len(b.words), label: target, bits: bits})
	b.words = append(b.words, op(opcode, rest))

	return b
}

// resolve computes each fixup's PC-relative offset (target - (index+1),
// the PC value once the referencing instruction has been fetched) and
// patches it into the field's low bits.
func (b *builder) resolve() []word.Word {
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			panic("monitor: undefined label " + f.label)
		}

		offset := word.Word(target - (f.index + 1))
		mask := word.Word(1)<<f.bits - 1
		b.words[f.index] |= offset & mask
	}

	return b.words
}

func op(opcode cpu.Opcode, rest word.Word) word.Word {
	return word.Word(opcode)<<12 | rest
}

func dr(r word.Register) word.Word  { return word.Word(r) << 9 }
func sr(r word.Register) word.Word  { return word.Word(r) << 9 }
func sr1(r word.Register) word.Word { return word.Word(r) << 6 }
func imm5(v word.Word) word.Word    { return 0x0020 | (v & 0x1f) }
func brCond(c word.Condition) word.Word {
	return word.Word(c) << 9
}

// Routines returns the bundled HALT/OUT/PUTS/IN service routines and their
// vector-table entries.
func Routines() []Routine {
	return []Routine{halt(), out(), puts(), in()}
}

// halt clears the MCR's clock-enable bit, stopping the run loop.
func halt() Routine {
	b := newBuilder()
	b.emit(op(cpu.OpAND, dr(word.R0)|sr1(word.R0)|imm5(0))) // AND R0,R0,#0 -> R0 = 0
	b.rel(cpu.OpSTI, sr(word.R0), "mcr_ptr", 9)              // STI R0, [mcr_ptr] -> mem[MCR] = 0
	b.emit(op(cpu.OpRTI, 0))
	b.label("mcr_ptr").emit(word.Word(cpu.MCRAddr))

	return Routine{Name: "HALT", Vec: TrapHALT, Orig: haltOrig, Code: b.resolve()}
}

// out writes the low byte of R0 to the display, polling DSR for
// readiness first, grounded on input_output.c's output polling loop.
func out() Routine {
	b := newBuilder()
	b.label("poll").rel(cpu.OpLDI, dr(word.R1), "dsr_ptr", 9) // LDI R1, [dsr_ptr]
	b.rel(cpu.OpBR, brCond(word.ConditionZero|word.ConditionPositive), "poll", 9)
	b.rel(cpu.OpSTI, sr(word.R0), "ddr_ptr", 9) // STI R0, [ddr_ptr]
	b.emit(op(cpu.OpRTI, 0))
	b.label("dsr_ptr").emit(word.Word(display.DSRAddr))
	b.label("ddr_ptr").emit(word.Word(display.DDRAddr))

	return Routine{Name: "OUT", Vec: TrapOUT, Orig: outOrig, Code: b.resolve()}
}

// puts writes a NUL-terminated string starting at the address in R0, one
// character via the same DDR polling discipline as out, grounded on
// input_output.c's console write loop.
func puts() Routine {
	b := newBuilder()
	b.emit(op(cpu.OpADD, dr(word.R2)|sr1(word.R0)|imm5(0))) // R2 = R0, a cursor
	b.label("loop").emit(op(cpu.OpLDR, dr(word.R1)|sr1(word.R2)))
	b.rel(cpu.OpBR, brCond(word.ConditionZero), "done", 9)
	b.label("waitready").rel(cpu.OpLDI, dr(word.R3), "dsr_ptr", 9)
	b.rel(cpu.OpBR, brCond(word.ConditionZero|word.ConditionPositive), "waitready", 9)
	b.rel(cpu.OpSTI, sr(word.R1), "ddr_ptr", 9)
	b.emit(op(cpu.OpADD, dr(word.R2)|sr1(word.R2)|imm5(1))) // R2++
	b.rel(cpu.OpBR, brCond(word.ConditionNegative|word.ConditionZero|word.ConditionPositive), "loop", 9)
	b.label("done").emit(op(cpu.OpRTI, 0))
	b.label("dsr_ptr").emit(word.Word(display.DSRAddr))
	b.label("ddr_ptr").emit(word.Word(display.DDRAddr))

	return Routine{Name: "PUTS", Vec: TrapPUTS, Orig: putsOrig, Code: b.resolve()}
}

// in polls the keyboard for a byte, reads it into R0, and echoes it to the
// display, grounded on input_output.c's console read loop, made
// non-blocking/polling here since the simulator never blocks the CPU.
func in() Routine {
	b := newBuilder()
	b.label("poll").rel(cpu.OpLDI, dr(word.R0), "kbsr_ptr", 9)
	b.rel(cpu.OpBR, brCond(word.ConditionZero|word.ConditionPositive), "poll", 9)
	b.rel(cpu.OpLDI, dr(word.R0), "kbdr_ptr", 9)
	b.rel(cpu.OpSTI, sr(word.R0), "ddr_ptr", 9)
	b.emit(op(cpu.OpRTI, 0))
	b.label("kbsr_ptr").emit(word.Word(keyboard.KBSRAddr))
	b.label("kbdr_ptr").emit(word.Word(keyboard.KBDRAddr))
	b.label("ddr_ptr").emit(word.Word(display.DDRAddr))

	return Routine{Name: "IN", Vec: TrapIN, Orig: inOrig, Code: b.resolve()}
}
