package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	seeds := []uint32{
		0x002081b3, // add
		0x00500513, // addi
		0x00029313, // mv
		0x00002013, // invalid op-imm
		0x80008e63, // beqz
		0xffe0006f, // jal
		0x00b10823, // sd
		0x01f08023, // sd, rs2 = x31
		0x00000073, // ecall
		0x00000000,
		0xffffffff,
	}
	for _, word := range seeds {
		f.Add(word, uint32(0), uint32(0x2000))
		f.Add(word, uint32(1), uint32(0xffffffff))
	}

	f.Fuzz(func(t *testing.T, word uint32, low uint32, high uint32) {
		assert := assert.New(t)

		code := Decode(word)
		assert.Equal(word, code.Word)

		// Re-encoding the decoded fields decodes to the same fields.
		var remade Code
		switch code.Op {
		case OP_ADD:
			remade = MakeCodeAdd(code.Rd, code.Rs1, code.Rs2)
		case OP_ADDI:
			remade = MakeCodeAddi(code.Rd, code.Rs1, code.Imm)
		case OP_MV:
			remade = MakeCodeMv(code.Rd, code.Rs1)
		case OP_BEQZ:
			remade = MakeCodeBeqz(code.Rs1, code.Imm)
		case OP_JAL:
			remade = MakeCodeJal(code.Rd, code.Imm)
		case OP_SD:
			remade = MakeCodeSd(code.Rs1, code.Rs2, code.Imm)
		case OP_ECALL:
			remade = MakeCodeEcall()
		case OP_INVALID:
			remade = code
		}
		remade.Word = word
		assert.Equal(code, remade)

		cpu := newTestCpu(code)
		for n := range cpu.Register {
			if n%2 == 0 {
				cpu.Register[n] = low
			} else {
				cpu.Register[n] = high
			}
		}
		before := cpu.Register

		halted, err := cpu.Tick()

		assert.Equal(code.Op == OP_ECALL, halted)

		switch code.Op {
		case OP_INVALID:
			assert.ErrorIs(err, ErrUnknownInstruction)
			assert.Equal(before, cpu.Register)
			assert.Equal(0, cpu.Ticks)
		case OP_SD:
			if err != nil {
				assert.Equal(0, cpu.Memory.BytesWritten)
			} else {
				assert.Equal(8, cpu.Memory.BytesWritten)
			}
			assert.Equal(before, cpu.Register)
		case OP_BEQZ:
			assert.NoError(err)
			assert.Equal(before, cpu.Register)
			if before[code.Rs1] == 0 {
				assert.Equal(testBase+4+uint32(code.Imm), cpu.Pc)
			} else {
				assert.Equal(testBase+4, cpu.Pc)
			}
		case OP_JAL:
			assert.NoError(err)
			assert.Equal(testBase+8, cpu.Register[code.Rd])
			assert.Equal(testBase+uint32(code.Imm*2), cpu.Pc)
		default:
			assert.NoError(err)
			assert.Equal(1, cpu.Ticks)
		}
	})
}
