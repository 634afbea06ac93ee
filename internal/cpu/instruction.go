package cpu

import "github.com/jhollis/lc3sim/internal/word"

// Instruction is a single fetched 16-bit instruction word with bit-field
// accessors, grounded on the teacher's vm.Instruction accessor methods
// (Opcode/DR/SR/SR1/SR2/Imm/Offset/Literal/Vector).
type Instruction word.Word

// Opcode is the instruction's high nibble, bits 15-12.
type Opcode uint8

const (
	OpBR   Opcode = 0x0
	OpADD  Opcode = 0x1
	OpLD   Opcode = 0x2
	OpST   Opcode = 0x3
	OpJSR  Opcode = 0x4
	OpAND  Opcode = 0x5
	OpLDR  Opcode = 0x6
	OpSTR  Opcode = 0x7
	OpRTI  Opcode = 0x8
	OpNOT  Opcode = 0x9
	OpLDI  Opcode = 0xA
	OpSTI  Opcode = 0xB
	OpJMP  Opcode = 0xC
	OpRES  Opcode = 0xD // reserved, illegal
	OpLEA  Opcode = 0xE
	OpTRAP Opcode = 0xF
)

func (i Instruction) Opcode() Opcode {
	return Opcode(word.Word(i) >> 12)
}

// DR is the destination register field, bits 11-9.
func (i Instruction) DR() word.Register {
	return word.Register((word.Word(i) >> 9) & 0x7)
}

// SR is an alias for DR used where the instruction reads rather than
// writes the field (ST, STR and STI share the same bit position).
func (i Instruction) SR() word.Register {
	return i.DR()
}

// SR1 is the first source register field, bits 8-6.
func (i Instruction) SR1() word.Register {
	return word.Register((word.Word(i) >> 6) & 0x7)
}

// SR2 is the second source register field, bits 2-0, valid only when Imm()
// is false.
func (i Instruction) SR2() word.Register {
	return word.Register(word.Word(i) & 0x7)
}

// Imm reports whether ADD/AND use an immediate second operand (bit 5).
func (i Instruction) Imm() bool {
	return word.Word(i)&0x0020 != 0
}

// Literal returns the sign-extended n-bit immediate occupying the low bits,
// used by ADD/AND's imm5 field (n=5). TRAP's unsigned trapvect8 is read
// with Vector instead.
func (i Instruction) Literal(n uint8) word.Word {
	return word.Word(i).Zext(n).Sext(n)
}

// Vector returns TRAP's zero-extended 8-bit trap vector.
func (i Instruction) Vector() uint8 {
	return uint8(word.Word(i).Zext(8))
}

// Offset returns the sign-extended n-bit PC-relative offset used by BR, LD,
// ST, LEA (n=9), JSR (n=11), and LDR/STR (n=6).
func (i Instruction) Offset(n uint8) word.Word {
	return word.Word(i).Zext(n).Sext(n)
}

// Relative reports JSR's mode bit (bit 11): 1 selects PC-relative JSR, 0
// selects register-indirect JSRR.
func (i Instruction) Relative() bool {
	return word.Word(i)&0x0800 != 0
}

// ConditionMask returns BR's requested condition mask, bits 11-9.
func (i Instruction) ConditionMask() word.Condition {
	return word.Condition((word.Word(i) >> 9) & 0x7)
}

func (i Instruction) String() string {
	return word.Word(i).String()
}
