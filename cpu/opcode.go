package cpu

import (
	"fmt"
)

// Op is a decoded operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_INVALID = Op(0) // invalid
	OP_ADD     = Op(1) // add
	OP_ADDI    = Op(2) // addi
	OP_MV      = Op(3) // mv
	OP_BEQZ    = Op(4) // beqz
	OP_JAL     = Op(5) // jal
	OP_SD      = Op(6) // sd
	OP_ECALL   = Op(7) // ecall
)

// Major opcode values, held in the low 7 bits of an instruction word.
const (
	OPCODE_MASK   = uint32(0x7f)
	OPCODE_OP     = uint32(0x33) // add
	OPCODE_OP_IMM = uint32(0x13) // addi, mv
	OPCODE_BRANCH = uint32(0x63) // beqz
	OPCODE_JAL    = uint32(0x6f) // jal
	OPCODE_STORE  = uint32(0x23) // sd
	OPCODE_SYSTEM = uint32(0x73) // ecall
)

// Minor opcode values of OPCODE_OP_IMM, held in bits 14:12.
const (
	FUNCT3_ADDI = uint32(0)
	FUNCT3_MV   = uint32(1)
)

// Immediate ranges of the encodings.
const (
	ADDI_IMM_MIN = -2048
	ADDI_IMM_MAX = 2047
	BEQZ_IMM_MIN = -32
	BEQZ_IMM_MAX = 31
	JAL_IMM_MIN  = -1024
	JAL_IMM_MAX  = 1023
	SD_IMM_MIN   = 0
	SD_IMM_MAX   = 4095
)

// Code is a decoded instruction word.
//
// Only the fields used by Op are set; the rest are zero.
type Code struct {
	Word uint32 // Raw instruction word.
	Op   Op     // Decoded operation.
	Rd   uint8  // Destination register.
	Rs1  uint8  // First source register.
	Rs2  uint8  // Second source register.
	Imm  int32  // Immediate, after the per-operation extension rule.
}

// Opcode returns the major opcode field of the word.
func (code Code) Opcode() uint32 {
	return code.Word & OPCODE_MASK
}

func fieldRd(word uint32) uint8 {
	return uint8((word >> 7) & 0x1f)
}

func fieldRs1(word uint32) uint8 {
	return uint8((word >> 15) & 0x1f)
}

func fieldRs2(word uint32) uint8 {
	return uint8((word >> 20) & 0x1f)
}

func fieldFunct3(word uint32) uint32 {
	return (word >> 12) & 0x7
}

// Decode decodes an instruction word.
// Words with no defined behaviour decode as OP_INVALID.
func Decode(word uint32) (code Code) {
	code.Word = word

	switch word & OPCODE_MASK {
	case OPCODE_OP:
		code.Op = OP_ADD
		code.Rd = fieldRd(word)
		code.Rs1 = fieldRs1(word)
		code.Rs2 = fieldRs2(word)
	case OPCODE_OP_IMM:
		switch fieldFunct3(word) {
		case FUNCT3_ADDI:
			code.Op = OP_ADDI
			code.Rd = fieldRd(word)
			code.Rs1 = fieldRs1(word)
			// bits 31:20, sign extended
			code.Imm = int32(word) >> 20
		case FUNCT3_MV:
			code.Op = OP_MV
			code.Rd = fieldRd(word)
			code.Rs1 = fieldRs1(word)
		}
	case OPCODE_BRANCH:
		code.Op = OP_BEQZ
		code.Rs1 = fieldRs1(word)
		// sign from bit 31, magnitude from bits 11:7
		code.Imm = (int32(word)>>31)<<5 | int32((word>>7)&0x1f)
	case OPCODE_JAL:
		code.Op = OP_JAL
		code.Rd = fieldRd(word)
		// sign from bit 31, magnitude from bits 30:21
		code.Imm = (int32(word)>>31)<<10 | int32((word>>21)&0x3ff)
	case OPCODE_STORE:
		code.Op = OP_SD
		code.Rs1 = fieldRs1(word)
		code.Rs2 = fieldRs2(word)
		// bits 31:25 and 11:7, zero extended
		code.Imm = int32(((word>>25)&0x7f)<<5 | (word>>7)&0x1f)
	case OPCODE_SYSTEM:
		code.Op = OP_ECALL
	}

	return
}

func reg(r uint8) uint32 {
	return uint32(r) & 0x1f
}

// MakeCodeAdd creates an add instruction.
func MakeCodeAdd(rd, rs1, rs2 uint8) Code {
	return Decode(reg(rs2)<<20 | reg(rs1)<<15 | reg(rd)<<7 | OPCODE_OP)
}

// MakeCodeAddi creates an add-immediate instruction.
// The immediate is truncated to 12 bits.
func MakeCodeAddi(rd, rs1 uint8, imm int32) Code {
	return Decode((uint32(imm)&0xfff)<<20 | reg(rs1)<<15 | FUNCT3_ADDI<<12 | reg(rd)<<7 | OPCODE_OP_IMM)
}

// MakeCodeMv creates a register move instruction.
func MakeCodeMv(rd, rs1 uint8) Code {
	return Decode(reg(rs1)<<15 | FUNCT3_MV<<12 | reg(rd)<<7 | OPCODE_OP_IMM)
}

// MakeCodeBeqz creates a branch-if-zero instruction.
// The offset is truncated to 6 bits.
func MakeCodeBeqz(rs1 uint8, imm int32) Code {
	word := reg(rs1)<<15 | (uint32(imm)&0x1f)<<7 | OPCODE_BRANCH
	if imm < 0 {
		word |= 1 << 31
	}
	return Decode(word)
}

// MakeCodeJal creates a jump-and-link instruction.
// The offset, in half words, is truncated to 11 bits.
func MakeCodeJal(rd uint8, imm int32) Code {
	word := (uint32(imm)&0x3ff)<<21 | reg(rd)<<7 | OPCODE_JAL
	if imm < 0 {
		word |= 1 << 31
	}
	return Decode(word)
}

// MakeCodeSd creates a double word store instruction.
// The offset is truncated to 12 unsigned bits.
func MakeCodeSd(rs1, rs2 uint8, imm int32) Code {
	uimm := uint32(imm) & 0xfff
	return Decode((uimm>>5)<<25 | reg(rs2)<<20 | reg(rs1)<<15 | (uimm&0x1f)<<7 | OPCODE_STORE)
}

// MakeCodeEcall creates the halt instruction.
func MakeCodeEcall() Code {
	return Decode(OPCODE_SYSTEM)
}

// RegisterName returns the assembler name of a register.
func RegisterName(r uint8) string {
	return fmt.Sprintf("x%d", r)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	r := RegisterName

	switch code.Op {
	case OP_ADD:
		out = fmt.Sprintf("%v %v %v %v", code.Op, r(code.Rd), r(code.Rs1), r(code.Rs2))
	case OP_ADDI:
		out = fmt.Sprintf("%v %v %v %v", code.Op, r(code.Rd), r(code.Rs1), code.Imm)
	case OP_MV:
		out = fmt.Sprintf("%v %v %v", code.Op, r(code.Rd), r(code.Rs1))
	case OP_BEQZ:
		out = fmt.Sprintf("%v %v %v", code.Op, r(code.Rs1), code.Imm)
	case OP_JAL:
		out = fmt.Sprintf("%v %v %v", code.Op, r(code.Rd), code.Imm)
	case OP_SD:
		out = fmt.Sprintf("%v %v %v %v", code.Op, r(code.Rs2), r(code.Rs1), code.Imm)
	case OP_ECALL:
		out = code.Op.String()
	default:
		out = fmt.Sprintf(".word 0x%08x", code.Word)
	}

	return
}
