package cpu

import (
	"encoding/binary"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// Native returns the standard RISC-V disassembly of an instruction word.
//
// Several μRV encodings (mv, beqz, sd) do not carry their RISC-V meaning,
// so this is for annotation only. Words RISC-V cannot decode return "?".
func Native(word uint32) string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], word)

	inst, err := riscv64asm.Decode(raw[:])
	if err != nil {
		return "?"
	}

	return riscv64asm.GNUSyntax(inst)
}
