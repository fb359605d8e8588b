// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package loader places the executable text of an ELF object into the
// memory image of a μRV machine.
//
// Exactly one region is loaded: the contents of the first section whose
// type is SHT_PROGBITS and whose flags are exactly SHF_ALLOC|SHF_EXECINSTR,
// provided the object also carries a PT_LOAD segment whose flags are exactly
// PF_R|PF_X. Data, bss, relocations and symbols are ignored.
package loader

import (
	"bytes"
	"debug/elf"
	"encoding/hex"
	"log"
	"math"

	"github.com/ezrec/urv/cpu"
	"github.com/ezrec/urv/memory"
)

const (
	SEGMENT_FLAGS = elf.PF_R | elf.PF_X               // Required program header flags.
	SECTION_TYPE  = elf.SHT_PROGBITS                  // Required section type.
	SECTION_FLAGS = elf.SHF_ALLOC | elf.SHF_EXECINSTR // Required section flags.
)

// segment is the region of the input to be copied into memory.
type segment struct {
	Offset uint64 // File offset.
	Size   uint64 // Size, in bytes.
	Addr   uint64 // Destination address.
}

// find locates the text region of an ELF object.
func find(file *elf.File) (seg segment, err error) {
	executable := false
	for _, prog := range file.Progs {
		if prog.Type == elf.PT_LOAD && prog.Flags == SEGMENT_FLAGS {
			executable = true
			break
		}
	}
	if !executable {
		err = ErrNoExecutableSegment
		return
	}

	for _, section := range file.Sections {
		if section.Type == SECTION_TYPE && section.Flags == SECTION_FLAGS {
			seg = segment{
				Offset: section.Offset,
				Size:   section.Size,
				Addr:   section.Addr,
			}
			return
		}
	}

	err = ErrNoTextSection
	return
}

// Load parses binary as an ELF object, copies its text into a freshly zeroed
// memory image of the cpu, and resets the cpu with the program counter at
// the text address.
//
// On error the cpu and its memory are left untouched.
func Load(binary []byte, cpu *cpu.Cpu) (err error) {
	file, err := elf.NewFile(bytes.NewReader(binary))
	if err != nil {
		err = &ErrMalformedElf{Err: err}
		return
	}
	defer file.Close()

	seg, err := find(file)
	if err != nil {
		return
	}

	if seg.Offset > uint64(len(binary)) || seg.Size > uint64(len(binary))-seg.Offset {
		err = &ErrMalformedElf{Err: ErrTruncated}
		return
	}

	if seg.Addr > math.MaxUint32 || seg.Size > memory.MEMORY_SIZE {
		err = ErrImageOverflow
		return
	}
	addr := uint32(seg.Addr)
	if cpu.Memory.Check(addr, int(seg.Size)) != nil {
		err = ErrImageOverflow
		return
	}

	text := binary[seg.Offset : seg.Offset+seg.Size]

	if cpu.Verbose {
		log.Print(f("loader: text 0x%08x, %d bytes", addr, len(text)))
		log.Print(hex.Dump(text))
	}

	cpu.Memory.Reset()
	err = cpu.Memory.Write(addr, text)
	if err != nil {
		return
	}

	cpu.Reset(addr)

	return
}
