package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/ezrec/urv/cpu"
	"github.com/ezrec/urv/internal"
)

const (
	ELF_HEADER_SIZE     = 52 // Size of an ELF32 file header.
	PROG_HEADER_SIZE    = 32 // Size of an ELF32 program header.
	SECTION_HEADER_SIZE = 40 // Size of an ELF32 section header.
)

// Section is an additional region of an Image, placed after the text.
type Section struct {
	Name string // Section name.
	Addr uint32 // Load address.
	Data []byte // Contents.
}

// Image is a minimal little-endian ELF32 RISC-V executable with a single
// text region, mapped by one PT_LOAD segment and one .text section.
type Image struct {
	Text []byte // Contents of the text region.
	Addr uint32 // Load address and entry point.

	SegmentFlags elf.ProgFlag    // Flags of the PT_LOAD program header.
	SectionType  elf.SectionType // Type of the .text section, and of Extra sections.
	SectionFlags elf.SectionFlag // Flags of the .text section, and of Extra sections.

	Extra []Section // Sections following .text in header order.
}

// NewImage creates an image with the flags the loader expects.
func NewImage(text []byte, addr uint32) (img *Image) {
	img = &Image{
		Text:         text,
		Addr:         addr,
		SegmentFlags: SEGMENT_FLAGS,
		SectionType:  SECTION_TYPE,
		SectionFlags: SECTION_FLAGS,
	}

	return
}

// Bytes returns the encoded ELF object.
//
// The layout is the file header, the program header, the text, any extra
// sections, the section name string table and finally the section headers.
func (img *Image) Bytes() (data []byte, err error) {
	regions := append([]Section{{Name: ".text", Addr: img.Addr, Data: img.Text}}, img.Extra...)

	// Null section, regions, then the string table.
	count := len(regions) + 2
	strtab_index := count - 1

	shstrtab := []byte{0}
	sections := make([]elf.Section32, 1, count)
	offset := ELF_HEADER_SIZE + PROG_HEADER_SIZE
	for _, region := range regions {
		offset = internal.Align(offset, 4)
		sections = append(sections, elf.Section32{
			Name:      uint32(len(shstrtab)),
			Type:      uint32(img.SectionType),
			Flags:     uint32(img.SectionFlags),
			Addr:      region.Addr,
			Off:       uint32(offset),
			Size:      uint32(len(region.Data)),
			Addralign: 4,
		})
		shstrtab = append(append(shstrtab, region.Name...), 0)
		offset += len(region.Data)
	}

	str_off := internal.Align(offset, 4)
	sections = append(sections, elf.Section32{
		Name:      uint32(len(shstrtab)),
		Type:      uint32(elf.SHT_STRTAB),
		Off:       uint32(str_off),
		Addralign: 1,
	})
	shstrtab = append(append(shstrtab, ".shstrtab"...), 0)
	sections[strtab_index].Size = uint32(len(shstrtab))

	sh_off := internal.Align(str_off+len(shstrtab), 4)

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)

	header := elf.Header32{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     img.Addr,
		Phoff:     ELF_HEADER_SIZE,
		Shoff:     uint32(sh_off),
		Ehsize:    ELF_HEADER_SIZE,
		Phentsize: PROG_HEADER_SIZE,
		Phnum:     1,
		Shentsize: SECTION_HEADER_SIZE,
		Shnum:     uint16(count),
		Shstrndx:  uint16(strtab_index),
	}

	size := uint32(len(img.Text))
	prog := elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Off:    sections[1].Off,
		Vaddr:  img.Addr,
		Paddr:  img.Addr,
		Filesz: size,
		Memsz:  size,
		Flags:  uint32(img.SegmentFlags),
		Align:  4,
	}

	buf := &bytes.Buffer{}
	pad := func(offset uint32) {
		for uint32(buf.Len()) < offset {
			buf.WriteByte(0)
		}
	}

	err = binary.Write(buf, binary.LittleEndian, &header)
	if err != nil {
		return
	}
	err = binary.Write(buf, binary.LittleEndian, &prog)
	if err != nil {
		return
	}
	for n, region := range regions {
		pad(sections[1+n].Off)
		buf.Write(region.Data)
	}
	pad(uint32(str_off))
	buf.Write(shstrtab)
	pad(uint32(sh_off))
	err = binary.Write(buf, binary.LittleEndian, sections)
	if err != nil {
		return
	}

	data = buf.Bytes()
	return
}

// Build wraps the text of an assembled program in an ELF executable
// loaded at addr.
func Build(prog *cpu.Program, addr uint32) ([]byte, error) {
	return NewImage(prog.Binary(), addr).Bytes()
}
