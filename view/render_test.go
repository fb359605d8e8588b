package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/urv/cpu"
	"github.com/ezrec/urv/memory"
)

func newSnapshot() (mem *[memory.MEMORY_SIZE]byte, registers *[cpu.REGISTER_COUNT]uint32) {
	mem = &[memory.MEMORY_SIZE]byte{}
	registers = &[cpu.REGISTER_COUNT]uint32{}

	mem[0] = 0xab
	mem[ROW_BYTES-1] = 0xcd
	mem[memory.MEMORY_SIZE-1] = 0xef
	registers[0] = 0x12345678
	registers[31] = 0xdeadbeef

	return
}

func TestRender(t *testing.T) {
	assert := assert.New(t)

	mem, registers := newSnapshot()
	out := Render(mem, registers, 120, 40)

	assert.LessOrEqual(lipgloss.Height(out), 40)
	assert.LessOrEqual(lipgloss.Width(out), 120)

	assert.Contains(out, "Memory")
	assert.Contains(out, "Registers")
	assert.Contains(out, "00000: ab 00 00")
	assert.Contains(out, "00 cd")
	assert.Contains(out, "00020: 00")
	assert.Contains(out, "x00: 12345678 00000000 00000000 00000000")
	assert.Contains(out, "x28: 00000000 00000000 00000000 deadbeef")

	// Memory is above registers.
	assert.Less(strings.Index(out, "Memory"), strings.Index(out, "Registers"))
}

func TestRenderSplit(t *testing.T) {
	assert := assert.New(t)

	mem, registers := newSnapshot()

	for _, height := range []int{40, 24, 31} {
		out := Render(mem, registers, 120, height)
		lines := strings.Split(out, "\n")
		mem_h := height * MEMORY_SHARE / 100

		assert.Equal(height, lipgloss.Height(out), "height %d", height)
		if !assert.Equal(height, len(lines), "height %d", height) {
			continue
		}

		// Memory pane occupies the first mem_h lines, registers the rest.
		memory_pane := strings.Join(lines[:mem_h], "\n")
		register_pane := strings.Join(lines[mem_h:], "\n")
		assert.Equal(mem_h, lipgloss.Height(memory_pane), "height %d", height)
		assert.Equal(height-mem_h, lipgloss.Height(register_pane), "height %d", height)

		assert.True(strings.HasPrefix(lines[0], "╭"), "height %d", height)
		assert.True(strings.HasPrefix(lines[mem_h-1], "╰"), "height %d", height)
		assert.True(strings.HasPrefix(lines[mem_h], "╭"), "height %d", height)
		assert.True(strings.HasPrefix(lines[height-1], "╰"), "height %d", height)
		assert.Contains(lines[1], "Memory", "height %d", height)
		assert.Contains(lines[mem_h+1], "Registers", "height %d", height)
	}

	assert.Equal(28, lipgloss.Height(pane("Memory", nil, 80, 28)))
}

func TestRenderUnmodified(t *testing.T) {
	assert := assert.New(t)

	mem, registers := newSnapshot()
	mem_before := *mem
	reg_before := *registers

	_ = Render(mem, registers, 80, 24)
	_ = RenderAt(mem, registers, 80, 24, MEMORY_ROWS)

	assert.True(mem_before == *mem)
	assert.Equal(reg_before, *registers)
}

func TestRenderClip(t *testing.T) {
	assert := assert.New(t)

	mem, registers := newSnapshot()
	out := Render(mem, registers, 40, 20)

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(lipgloss.Width(line), 40, line)
	}
	assert.LessOrEqual(lipgloss.Height(out), 20)
}

func TestRenderAt(t *testing.T) {
	assert := assert.New(t)

	mem, registers := newSnapshot()

	out := RenderAt(mem, registers, 120, 40, 2)
	assert.Contains(out, "00040: ")
	assert.NotContains(out, "00000: ")

	// Windows past the end show the last rows.
	out = RenderAt(mem, registers, 120, 40, MEMORY_ROWS+100)
	assert.Contains(out, "fffe0: 00")
	assert.Contains(out, "00 ef")

	// Negative windows show the first rows.
	out = RenderAt(mem, registers, 120, 40, -5)
	assert.Contains(out, "00000: ab")
}

func TestMemoryRows(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(25, MemoryRows(40))
	assert.Equal(13, MemoryRows(24))
	assert.Equal(1, MemoryRows(2))
}
