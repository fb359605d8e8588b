package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramDebug(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"; header",
		"addi a0 zero 1",
		".word 1 2 3",
		"ecall",
	)

	table := [](struct {
		offset uint32
		lineno int
		index  int
	}){
		{0, 2, 0},
		{4, 3, 0},
		{8, 3, 1},
		{12, 3, 2},
		{16, 4, 0},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.offset)
		if !assert.NotNil(dbg.Opcode, "offset %d", entry.offset) {
			continue
		}
		assert.Equal(entry.lineno, dbg.LineNo, "offset %d", entry.offset)
		assert.Equal(entry.index, dbg.Index, "offset %d", entry.offset)
	}

	assert.Nil(prog.Debug(20).Opcode)
	assert.Nil(prog.Debug(0x1000).Opcode)
}

func TestProgramCodes(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"mv a1 a0",
		".word 0x73 0x73",
		"jal zero 0",
	)

	var offsets []uint32
	var codes []Code
	for offset, code := range prog.Codes() {
		offsets = append(offsets, offset)
		codes = append(codes, code)
	}

	assert.Equal([]uint32{0, 4, 8, 12}, offsets)
	assert.Equal([]Code{
		MakeCodeMv(11, 10),
		MakeCodeEcall(),
		MakeCodeEcall(),
		MakeCodeJal(0, 0),
	}, codes)

	// Early exit from the iterator.
	count := 0
	for range prog.Codes() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestProgramBinary(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"addi a0 zero 5",
		"ecall",
	)

	assert.Equal([]byte{
		0x13, 0x05, 0x50, 0x00,
		0x73, 0x00, 0x00, 0x00,
	}, prog.Binary())
}
