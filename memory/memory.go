// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the flat, fixed size memory image of the μRV
// machine.
//
// The image is never resized. Every access is checked against its capacity,
// and an access that would fall outside of it fails with ErrOutOfBounds
// rather than wrapping or truncating.
package memory

import (
	"encoding/binary"
	"fmt"
	"iter"
	"log"
	"maps"
)

const (
	MEMORY_SIZE = 1024 * 1024 // Capacity of the memory image, in bytes.
	WORD_SIZE   = 4           // Size of a machine word, in bytes.
)

var _memory_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
	"WORD_SIZE":   fmt.Sprintf("%v", WORD_SIZE),
}

// Memory is the byte addressed memory image.
type Memory struct {
	Verbose bool              // If set, logs every write.
	Data    [MEMORY_SIZE]byte // Image contents.

	BytesWritten int // Count of bytes written since the last reset.
}

// NewMemory creates a new, zeroed, memory image.
func NewMemory() (mem *Memory) {
	mem = &Memory{}
	return
}

// Defines for the memory image.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Reset zeros the image and its statistics.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
	mem.BytesWritten = 0
}

// check verifies that [addr, addr+size) lies inside the image.
func (mem *Memory) check(addr uint32, size int) (err error) {
	if size < 0 || uint64(addr)+uint64(size) > MEMORY_SIZE {
		err = &ErrAccess{Addr: addr, Size: size}
	}
	return
}

// Read32 reads a little-endian word at addr.
func (mem *Memory) Read32(addr uint32) (value uint32, err error) {
	err = mem.check(addr, WORD_SIZE)
	if err != nil {
		return
	}

	value = binary.LittleEndian.Uint32(mem.Data[addr:])
	return
}

// Write32 writes a little-endian word at addr.
func (mem *Memory) Write32(addr uint32, value uint32) (err error) {
	err = mem.check(addr, WORD_SIZE)
	if err != nil {
		return
	}

	if mem.Verbose {
		log.Print(f("memory: [%08x] <= %08x", addr, value))
	}

	binary.LittleEndian.PutUint32(mem.Data[addr:], value)
	mem.BytesWritten += WORD_SIZE
	return
}

// Write copies data into the image at addr. Nothing is written unless the
// whole range fits.
func (mem *Memory) Write(addr uint32, data []byte) (err error) {
	err = mem.check(addr, len(data))
	if err != nil {
		return
	}

	if mem.Verbose {
		log.Print(f("memory: [%08x] <= %d bytes", addr, len(data)))
	}

	copy(mem.Data[addr:], data)
	mem.BytesWritten += len(data)
	return
}

// Read returns a copy of the size bytes at addr.
func (mem *Memory) Read(addr uint32, size int) (data []byte, err error) {
	err = mem.check(addr, size)
	if err != nil {
		return
	}

	data = make([]byte, size)
	copy(data, mem.Data[addr:])
	return
}

// Check reports whether [addr, addr+size) is addressable, without accessing it.
func (mem *Memory) Check(addr uint32, size int) error {
	return mem.check(addr, size)
}
