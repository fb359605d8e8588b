package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	assert.Equal(MEMORY_SIZE, len(mem.Data))
	assert.False(mem.Verbose)

	for _, b := range mem.Data {
		if b != 0 {
			t.Fatal("memory not zeroed")
		}
	}
}

func TestMemoryWord(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()

	err := mem.Write32(0x100, 0x12345678)
	assert.NoError(err)
	assert.Equal([]byte{0x78, 0x56, 0x34, 0x12}, mem.Data[0x100:0x104])

	value, err := mem.Read32(0x100)
	assert.NoError(err)
	assert.Equal(uint32(0x12345678), value)

	// Unaligned access is permitted.
	value, err = mem.Read32(0x101)
	assert.NoError(err)
	assert.Equal(uint32(0x00123456), value)

	assert.Equal(4, mem.BytesWritten)
}

func TestMemoryBounds(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		addr uint32
		size int
		ok   bool
	}){
		{"first", 0, 4, true},
		{"last", MEMORY_SIZE - 4, 4, true},
		{"straddle", MEMORY_SIZE - 3, 4, false},
		{"past", MEMORY_SIZE, 1, false},
		{"empty_at_end", MEMORY_SIZE, 0, true},
		{"wrap", 0xffffffff, 4, false},
		{"whole", 0, MEMORY_SIZE, true},
		{"too_big", 0, MEMORY_SIZE + 1, false},
	}

	for _, entry := range table {
		mem := NewMemory()
		err := mem.Check(entry.addr, entry.size)
		if entry.ok {
			assert.NoError(err, entry.name)
		} else {
			assert.True(errors.Is(err, ErrOutOfBounds), entry.name)
		}
	}
}

func TestMemoryFaultWritesNothing(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()

	err := mem.Write(MEMORY_SIZE-2, []byte{1, 2, 3, 4})
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.Equal([]byte{0, 0}, mem.Data[MEMORY_SIZE-2:])
	assert.Equal(0, mem.BytesWritten)

	err = mem.Write32(0xfffffffe, 0xffffffff)
	assert.ErrorIs(err, ErrOutOfBounds)

	_, err = mem.Read32(MEMORY_SIZE)
	var access *ErrAccess
	assert.True(errors.As(err, &access))
	assert.Equal(uint32(MEMORY_SIZE), access.Addr)
	assert.Equal(4, access.Size)
}

func TestMemoryReadCopy(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	assert.NoError(mem.Write(0x40, []byte{0xde, 0xad, 0xbe, 0xef}))

	data, err := mem.Read(0x40, 4)
	assert.NoError(err)
	assert.Equal([]byte{0xde, 0xad, 0xbe, 0xef}, data)

	data[0] = 0
	assert.Equal(byte(0xde), mem.Data[0x40])

	mem.Reset()
	assert.Equal(byte(0), mem.Data[0x40])
	assert.Equal(0, mem.BytesWritten)
}
