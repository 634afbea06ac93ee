package cpu

import "github.com/jhollis/lc3sim/internal/word"

// execute dispatches one decoded instruction. Each case is grounded on the
// corresponding operation in original_source/src/cpu.c, cross-checked
// against the teacher's internal/vm/ops.go operation structs for Go idiom
// (accessor names, condition-code update placement).
func (c *CPU) execute(inst Instruction) error {
	switch inst.Opcode() {
	case OpADD:
		return c.execAdd(inst)
	case OpAND:
		return c.execAnd(inst)
	case OpNOT:
		return c.execNot(inst)
	case OpBR:
		return c.execBr(inst)
	case OpJMP:
		return c.execJmp(inst)
	case OpJSR:
		return c.execJsr(inst)
	case OpLD:
		return c.execLd(inst)
	case OpLDI:
		return c.execLdi(inst)
	case OpLDR:
		return c.execLdr(inst)
	case OpLEA:
		return c.execLea(inst)
	case OpST:
		return c.execSt(inst)
	case OpSTI:
		return c.execSti(inst)
	case OpSTR:
		return c.execStr(inst)
	case OpTRAP:
		return c.execTrap(inst)
	case OpRTI:
		return c.RTI()
	case OpRES:
		return &exception{vector: VectorIllegalOp}
	default:
		return &exception{vector: VectorIllegalOp}
	}
}

func (c *CPU) setResult(dr word.Register, val word.Word) {
	c.Reg[dr] = val
	c.PSR = c.PSR.SetCondition(word.FromWord(val))
}

func (c *CPU) execAdd(inst Instruction) error {
	a := c.Reg[inst.SR1()]

	var b word.Word
	if inst.Imm() {
		b = inst.Literal(5)
	} else {
		b = c.Reg[inst.SR2()]
	}

	c.setResult(inst.DR(), a+b)

	return nil
}

func (c *CPU) execAnd(inst Instruction) error {
	a := c.Reg[inst.SR1()]

	var b word.Word
	if inst.Imm() {
		b = inst.Literal(5)
	} else {
		b = c.Reg[inst.SR2()]
	}

	c.setResult(inst.DR(), a&b)

	return nil
}

func (c *CPU) execNot(inst Instruction) error {
	c.setResult(inst.DR(), ^c.Reg[inst.SR1()])
	return nil
}

func (c *CPU) execBr(inst Instruction) error {
	if inst.ConditionMask()&c.PSR.Condition() != 0 {
		c.PC += inst.Offset(9)
	}

	return nil
}

func (c *CPU) execJmp(inst Instruction) error {
	// RET is JMP R7, same encoding; no special case needed.
	c.PC = c.Reg[inst.SR1()]
	return nil
}

func (c *CPU) execJsr(inst Instruction) error {
	target := c.Reg[inst.SR1()] // JSRR
	if inst.Relative() {
		target = c.PC + inst.Offset(11) // JSR
	}

	c.Reg[word.R7] = c.PC
	c.PC = target

	return nil
}

func (c *CPU) execLd(inst Instruction) error {
	addr := c.PC + inst.Offset(9)

	val, err := c.readMem(addr)
	if err != nil {
		return err
	}

	c.setResult(inst.DR(), val)

	return nil
}

func (c *CPU) execLdi(inst Instruction) error {
	ptr := c.PC + inst.Offset(9)

	addr, err := c.readMem(ptr)
	if err != nil {
		return err
	}

	val, err := c.readMem(addr)
	if err != nil {
		return err
	}

	c.setResult(inst.DR(), val)

	return nil
}

func (c *CPU) execLdr(inst Instruction) error {
	addr := c.Reg[inst.SR1()] + inst.Offset(6)

	val, err := c.readMem(addr)
	if err != nil {
		return err
	}

	c.setResult(inst.DR(), val)

	return nil
}

func (c *CPU) execLea(inst Instruction) error {
	// LEA sets condition codes on the computed address; see SPEC_FULL.md
	// §4.3.
	c.setResult(inst.DR(), c.PC+inst.Offset(9))
	return nil
}

func (c *CPU) execSt(inst Instruction) error {
	addr := c.PC + inst.Offset(9)
	return c.writeMem(addr, c.Reg[inst.SR()])
}

func (c *CPU) execSti(inst Instruction) error {
	ptr := c.PC + inst.Offset(9)

	addr, err := c.readMem(ptr)
	if err != nil {
		return err
	}

	return c.writeMem(addr, c.Reg[inst.SR()])
}

func (c *CPU) execStr(inst Instruction) error {
	addr := c.Reg[inst.SR1()] + inst.Offset(6)
	return c.writeMem(addr, c.Reg[inst.SR()])
}

// execTrap implements TRAP exactly as cpu.c's trap(): save the return
// address in R7 and load PC from the trap vector table. Unlike the
// teacher's trapErr.Handle, this never touches PSR — TRAP does not switch
// the processor to supervisor mode, per spec.md's explicit redesign note.
func (c *CPU) execTrap(inst Instruction) error {
	c.Reg[word.R7] = c.PC

	// TRAP consults the trap vector table directly at mem[trapvec8],
	// per spec.md §2, distinct from the mem[0x0100|vec] table
	// interrupts and exceptions use (see enterSystem).
	target, err := c.Bus.Read(word.Word(inst.Vector()))
	if err != nil {
		return err
	}

	c.PC = target

	return nil
}
