package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/urv/memory"
)

const (
	REGISTER_COUNT  = 32 // Size of the register file.
	RESULT_REGISTER = 10 // Register reported by ecall.
)

var _cpu_defines = map[string]string{
	"REGISTER_COUNT":  fmt.Sprintf("%v", REGISTER_COUNT),
	"RESULT_REGISTER": fmt.Sprintf("%v", RESULT_REGISTER),
}

// Cpu is the machine state of the μRV processor, and its execution engine.
//
// Register 0 is an ordinary register. It is not wired to zero.
type Cpu struct {
	Verbose bool        // Set to enable verbose logging.
	Trace   *log.Logger // If set, receives one line per executed instruction.

	Memory *memory.Memory // Reference to the memory image.

	Pc       uint32                 // Program counter, in bytes.
	Register [REGISTER_COUNT]uint32 // Register file.

	Ticks int // Instructions executed since the last reset.
}

// NewCpu creates a new CPU with a zeroed memory image.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: memory.NewMemory(),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("% 5s: %04x_%04x\n", "pc", cpu.Pc>>16, cpu.Pc&0xffff)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04x_%04x\n", RegisterName(uint8(n)), val>>16, val&0xffff)
	}

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Zeros the statistics counters.
// - Sets the program counter to the entry point.
//
// The memory image is left alone, as it belongs to the loader.
func (cpu *Cpu) Reset(entry uint32) {
	if cpu.Verbose {
		log.Printf("cpu: reset, entry 0x%08x", entry)
	}

	clear(cpu.Register[:])
	cpu.Ticks = 0
	cpu.Pc = entry
}

// Result returns the value reported by a halted program.
func (cpu *Cpu) Result() uint32 {
	return cpu.Register[RESULT_REGISTER]
}

// Fetch reads the instruction word at the program counter, advances the
// program counter past it, and decodes it.
func (cpu *Cpu) Fetch() (code Code, err error) {
	word, err := cpu.Memory.Read32(cpu.Pc)
	if err != nil {
		return
	}

	cpu.Pc += 4

	code = Decode(word)
	return
}

// Tick executes a single fetch, decode and execute cycle.
// Returns halted as true once an ecall has executed.
func (cpu *Cpu) Tick() (halted bool, err error) {
	pc := cpu.Pc

	defer func() {
		if err != nil {
			err = &ErrFault{Pc: pc, Err: err}
		}
	}()

	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	halted, err = cpu.Execute(code)
	return
}

// Execute executes a single decoded instruction.
//
// Branch and jump arithmetic is relative to the program counter as left by
// Fetch, which is four bytes past the instruction itself.
func (cpu *Cpu) Execute(code Code) (halted bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	reg := &cpu.Register

	at := cpu.Pc - 4
	var effect string

	switch code.Op {
	case OP_ADD:
		reg[code.Rd] = reg[code.Rs1] + reg[code.Rs2]
		effect = fmt.Sprintf("%v=%08x", RegisterName(code.Rd), reg[code.Rd])
	case OP_ADDI:
		reg[code.Rd] = reg[code.Rs1] + uint32(code.Imm)
		effect = fmt.Sprintf("%v=%08x", RegisterName(code.Rd), reg[code.Rd])
	case OP_MV:
		reg[code.Rd] = reg[code.Rs1]
		effect = fmt.Sprintf("%v=%08x", RegisterName(code.Rd), reg[code.Rd])
	case OP_BEQZ:
		if reg[code.Rs1] == 0 {
			cpu.Pc = cpu.Pc + uint32(code.Imm)
			effect = fmt.Sprintf("pc=%08x", cpu.Pc)
		} else {
			effect = "not taken"
		}
	case OP_JAL:
		reg[code.Rd] = cpu.Pc + 4
		cpu.Pc = cpu.Pc + uint32(code.Imm*2) - 4
		effect = fmt.Sprintf("%v=%08x pc=%08x", RegisterName(code.Rd), reg[code.Rd], cpu.Pc)
	case OP_SD:
		// The low word comes from the register after rs2.
		if int(code.Rs2)+1 >= REGISTER_COUNT {
			err = errors.Join(ErrRegisterInvalid, memory.ErrOutOfBounds)
			return
		}
		addr := uint32(int32(reg[code.Rs1]) + code.Imm)
		err = cpu.Memory.Check(addr, 8)
		if err != nil {
			return
		}
		err = cpu.Memory.Write32(addr, reg[code.Rs2+1])
		if err != nil {
			return
		}
		err = cpu.Memory.Write32(addr+4, reg[code.Rs2])
		if err != nil {
			return
		}
		effect = fmt.Sprintf("[%08x]=%08x_%08x", addr, reg[code.Rs2], reg[code.Rs2+1])
	case OP_ECALL:
		halted = true
		effect = fmt.Sprintf("halt %v=%v", RegisterName(RESULT_REGISTER), cpu.Result())
	default:
		err = ErrUnknownInstruction
		return
	}

	cpu.Ticks++

	if cpu.Trace != nil {
		if cpu.Verbose {
			cpu.Trace.Printf("%08x: %02x %-24v %-32v # %v", at, code.Opcode(), code, effect, Native(code.Word))
		} else {
			cpu.Trace.Printf("%08x: %02x %-24v %v", at, code.Opcode(), code, effect)
		}
	}

	return
}
