package cpu

import (
	"encoding/binary"
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo    int      // Source line number.
	Offset    uint32   // Byte offset of the first instruction from the start of the text.
	Words     []string // Source words.
	Codes     []Code   // Generated instructions.
	LinkLabel string   // Label the last instruction branches to, if any.
}

// Program is an assembled instruction listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates a single instruction within its source Opcode.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the listing entry for a text offset.
// The returned Opcode is nil if no instruction lives at that offset.
func (prog *Program) Debug(offset uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		end := op.Offset + uint32(4*len(op.Codes))
		if offset >= op.Offset && offset < end {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(offset-op.Offset) / 4,
			}
			break
		}
	}

	return
}

// Binary returns the little-endian text image of the program.
func (prog *Program) Binary() (text []byte) {
	for _, code := range prog.Codes() {
		text = binary.LittleEndian.AppendUint32(text, code.Word)
	}

	return
}

// Codes iterates over every instruction and its text offset.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(offset uint32, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Offset+uint32(4*n), code) {
					return
				}
			}
		}
	}
}
