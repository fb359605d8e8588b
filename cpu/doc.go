// Package cpu implements the processor and assembler for the μRV system.
//
// The processor has a 1 MiB byte addressed memory image, a program counter,
// and thirty-two 32-bit registers. Register x0 is an ordinary register.
// Each Tick fetches the little-endian word at the program counter, advances
// the program counter by four, decodes the word into a Code, and executes it.
// Branch and jump targets are relative to the advanced program counter.
//
// The instruction set is a small subset of a RISC-V style encoding: add,
// addi, mv, beqz, jal, sd and ecall. Ecall halts the processor, reporting
// register x10 as the result. Every other encoding is a fatal error.
//
// The assembler provides a text syntax for the same subset, supporting
// macros, labels, equates, and compile-time expression evaluation.
package cpu
