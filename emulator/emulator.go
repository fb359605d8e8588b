// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/urv/cpu"
	"github.com/ezrec/urv/internal"
	"github.com/ezrec/urv/loader"
)

const (
	DEFAULT_BASE = 0x10078 // Default text address of assembled programs.
)

var _emulator_defines = map[string]string{
	"DEFAULT_BASE": fmt.Sprintf("%#x", DEFAULT_BASE),
}

// Result of a halted program.
type Result struct {
	Value uint32 // Contents of the result register at the halt.
	Ticks int    // Instructions executed, including the halt.
}

// Emulator state. CPU + memory image + optional program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if it was assembled.

	Base  uint32 // Text address of the loaded program.
	Limit int    // If non-zero, the maximum ticks Run will execute.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Defines(maps.All(_emulator_defines),
		emu.Cpu.Memory.Defines(),
		emu.Cpu.Defines(),
	)
}

// Load an ELF executable into a fresh machine.
// The program listing is cleared.
func (emu *Emulator) Load(binary []byte) (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Memory.Verbose = emu.Verbose

	err = loader.Load(binary, emu.Cpu)
	if err != nil {
		return
	}

	emu.Base = emu.Cpu.Pc
	emu.Program = &cpu.Program{}

	return
}

// Assemble source text, wrap it as an ELF executable with its text at base,
// and load it. The listing is kept for line number reporting.
func (emu *Emulator) Assemble(source io.Reader, base uint32) (binary []byte, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}

	prog, err := asm.Parse(source)
	if err != nil {
		return
	}

	binary, err = loader.Build(prog, base)
	if err != nil {
		return
	}

	err = emu.Load(binary)
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the decoded instruction at the program counter.
func (emu *Emulator) Code() (code cpu.Code) {
	word, err := emu.Cpu.Memory.Read32(emu.Cpu.Pc)
	if err != nil {
		return
	}

	code = cpu.Decode(word)
	return
}

// LineNo returns the current line number for the executing opcode, or 0 if
// it is not known.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc - emu.Base)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil && lineno != 0 {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.Cpu.Tick()
	return
}

// Run ticks the emulator until the program halts or faults.
func (emu *Emulator) Run() (result Result, err error) {
	for {
		if emu.Limit > 0 && emu.Cpu.Ticks >= emu.Limit {
			err = &ErrLimit{Pc: emu.Cpu.Pc, Ticks: emu.Cpu.Ticks}
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}
		if done {
			break
		}
	}

	result = Result{
		Value: emu.Cpu.Result(),
		Ticks: emu.Cpu.Ticks,
	}

	return
}
