// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package view renders snapshots of a μRV machine to the terminal.
//
// Rendering only reads the memory image and register file it is given; it
// never influences execution.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ezrec/urv/cpu"
	"github.com/ezrec/urv/memory"
	"github.com/ezrec/urv/translate"
)

var f = translate.From

const (
	ROW_BYTES     = 32                             // Memory bytes per row.
	ROW_REGISTERS = 4                              // Registers per row.
	MEMORY_ROWS   = memory.MEMORY_SIZE / ROW_BYTES // Rows in the memory image.
	MEMORY_SHARE  = 70                             // Percentage of the height for the memory pane.
)

// memoryRow formats a single row of the memory image.
func memoryRow(mem *[memory.MEMORY_SIZE]byte, row int) string {
	var sb strings.Builder

	addr := row * ROW_BYTES
	fmt.Fprintf(&sb, "%05x:", addr)
	for _, b := range mem[addr : addr+ROW_BYTES] {
		fmt.Fprintf(&sb, " %02x", b)
	}

	return sb.String()
}

// registerRow formats a single row of the register file.
func registerRow(registers *[cpu.REGISTER_COUNT]uint32, row int) string {
	var sb strings.Builder

	first := row * ROW_REGISTERS
	fmt.Fprintf(&sb, "x%02d:", first)
	for _, value := range registers[first : first+ROW_REGISTERS] {
		fmt.Fprintf(&sb, " %08x", value)
	}

	return sb.String()
}

// pane renders a bordered block of exactly width by height cells, clipping
// the title and lines to fit.
func pane(title string, lines []string, width, height int) string {
	inner_w := max(width-2, 1)
	inner_h := max(height-2, 1)

	rows := make([]string, 0, inner_h)
	rows = append(rows, titleStyle.Render(ansi.Truncate(title, inner_w, "")))
	for _, line := range lines {
		if len(rows) == inner_h {
			break
		}
		rows = append(rows, ansi.Truncate(line, inner_w, ""))
	}

	return paneStyle.
		Width(inner_w).
		Height(inner_h).
		Render(strings.Join(rows, "\n"))
}

// MemoryRows returns the number of memory rows visible in a snapshot of
// the given height.
func MemoryRows(height int) int {
	mem_h := height * MEMORY_SHARE / 100
	return max(mem_h-3, 1)
}

// Render a snapshot of memory and registers, showing memory from address 0.
func Render(mem *[memory.MEMORY_SIZE]byte, registers *[cpu.REGISTER_COUNT]uint32, width, height int) string {
	return RenderAt(mem, registers, width, height, 0)
}

// RenderAt renders a snapshot as two vertically stacked panes, memory above
// registers, splitting the height 70% to 30%. The memory pane starts at
// firstRow, clamped so the window stays inside the image.
func RenderAt(mem *[memory.MEMORY_SIZE]byte, registers *[cpu.REGISTER_COUNT]uint32, width, height int, firstRow int) string {
	mem_h := height * MEMORY_SHARE / 100
	reg_h := height - mem_h

	visible := MemoryRows(height)
	firstRow = min(max(firstRow, 0), MEMORY_ROWS-visible)

	mem_lines := make([]string, 0, visible)
	for row := firstRow; row < firstRow+visible; row++ {
		mem_lines = append(mem_lines, memoryRow(mem, row))
	}

	reg_lines := make([]string, 0, cpu.REGISTER_COUNT/ROW_REGISTERS)
	for row := range cpu.REGISTER_COUNT / ROW_REGISTERS {
		reg_lines = append(reg_lines, registerRow(registers, row))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		pane(f("Memory"), mem_lines, width, mem_h),
		pane(f("Registers"), reg_lines, width, reg_h),
	)
}
