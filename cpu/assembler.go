// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":        "0",
	"OPCODE_MASK":   fmt.Sprintf("%#x", OPCODE_MASK),
	"OPCODE_OP":     fmt.Sprintf("%#x", OPCODE_OP),
	"OPCODE_OP_IMM": fmt.Sprintf("%#x", OPCODE_OP_IMM),
	"OPCODE_BRANCH": fmt.Sprintf("%#x", OPCODE_BRANCH),
	"OPCODE_JAL":    fmt.Sprintf("%#x", OPCODE_JAL),
	"OPCODE_STORE":  fmt.Sprintf("%#x", OPCODE_STORE),
	"OPCODE_SYSTEM": fmt.Sprintf("%#x", OPCODE_SYSTEM),
}

// Assembler is a single pass macro assembler for the μRV instruction subset.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of jump labels to text offsets.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap maps register names, numeric and ABI, to register indexes.
var regMap = map[string]uint8{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25,
	"s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

func init() {
	for n := range REGISTER_COUNT {
		regMap[RegisterName(uint8(n))] = uint8(n)
	}
}

// registerOf returns the register index of a word.
func (asm *Assembler) registerOf(word string) (r uint8, err error) {
	r, ok := regMap[word]
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// valueOf returns the value of a simple word.
// Values span both the signed and unsigned 32 bit ranges.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if len(word) > 0 && word[0] == '~' {
		invert = true
		word = word[1:]
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil || value > 0xffffffff || value < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = int64(^uint32(value))
	}

	return
}

// immediateOf returns the value of a word, checked against [min, max].
func (asm *Assembler) immediateOf(word string, min, max int64) (imm int32, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < min || value > max {
		err = ErrImmediateRange
		return
	}

	imm = int32(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reIndirect  = regexp.MustCompile(`([^\s,]+)\(([^\s,()]+)\)`)
)

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	// offset(base) => base offset
	line = reIndirect.ReplaceAllString(line, "$2 $1")
	line = strings.ReplaceAll(line, ",", " ")

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint32, 16)
		}
		asm.Label[label] = asm.currentOffset()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique to each expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			body := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, body)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: body, Err: err}
				return
			}

			err = asm.parseWords(words, body)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: body, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentOffset gets the text offset of the next instruction.
func (asm *Assembler) currentOffset() uint32 {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Offset + uint32(4*len(last.Codes))
}

// stripComment removes ';' and '#' comments from a line.
func stripComment(text string) string {
	if n := strings.IndexAny(text, ";#"); n >= 0 {
		text = text[:n]
	}
	return strings.TrimSpace(text)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = stripComment(text)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of branch and jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		target, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		index := len(op.Codes) - 1
		at := op.Offset + uint32(4*index)
		op.Codes[index], err = link(op.Codes[index], at, target)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// link re-encodes a branch or jump at text offset 'at' to reach 'target'.
func link(code Code, at uint32, target uint32) (linked Code, err error) {
	// Offsets are relative to the fetch-advanced program counter.
	delta := int64(target) - int64(at)

	switch code.Op {
	case OP_BEQZ:
		imm := delta - 4
		if imm < BEQZ_IMM_MIN || imm > BEQZ_IMM_MAX {
			err = ErrTargetRange
			return
		}
		linked = MakeCodeBeqz(code.Rs1, int32(imm))
	case OP_JAL:
		if delta%2 != 0 {
			err = ErrTargetAlign
			return
		}
		imm := delta / 2
		if imm < JAL_IMM_MIN || imm > JAL_IMM_MAX {
			err = ErrTargetRange
			return
		}
		linked = MakeCodeJal(code.Rd, int32(imm))
	default:
		log.Fatalf("Unable to link %v at 0x%x", code, at)
	}

	return
}

// operands checks that exactly 'count' operands follow the mnemonic.
func operands(words []string, count int) (err error) {
	switch {
	case len(words) < count+1:
		err = ErrOpcodeMissing
	case len(words) > count+1:
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Offset: asm.currentOffset(), Words: initial_words, Codes: codes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) == 2 && words[0] == "jal":
		// jal TARGET => jal ra TARGET
		words = []string{"jal", "ra", words[1]}
	case len(words) == 1 && words[0] == "halt":
		words = []string{"ecall"}
	default:
		// unchanged
	}

	// target resolves a branch target to an immediate, or defers it to
	// the link phase as a label.
	target := func(word string, min, max int64) (imm int32, err error) {
		if _, is_label := regMap[word]; is_label {
			err = ErrTargetMissing
			return
		}
		imm, err = asm.immediateOf(word, min, max)
		if _, is_number := err.(ErrParseNumber); is_number {
			err = nil
			label = word
		}
		return
	}

	var rd, rs1, rs2 uint8
	var imm int32

	switch words[0] {
	case "add":
		if err = operands(words, 3); err != nil {
			return
		}
		if rd, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if rs1, err = asm.registerOf(words[2]); err != nil {
			return
		}
		if rs2, err = asm.registerOf(words[3]); err != nil {
			return
		}
		codes = append(codes, MakeCodeAdd(rd, rs1, rs2))
	case "addi":
		if err = operands(words, 3); err != nil {
			return
		}
		if rd, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if rs1, err = asm.registerOf(words[2]); err != nil {
			return
		}
		if imm, err = asm.immediateOf(words[3], ADDI_IMM_MIN, ADDI_IMM_MAX); err != nil {
			return
		}
		codes = append(codes, MakeCodeAddi(rd, rs1, imm))
	case "mv":
		if err = operands(words, 2); err != nil {
			return
		}
		if rd, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if rs1, err = asm.registerOf(words[2]); err != nil {
			return
		}
		codes = append(codes, MakeCodeMv(rd, rs1))
	case "beqz":
		if err = operands(words, 2); err != nil {
			return
		}
		if rs1, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if imm, err = target(words[2], BEQZ_IMM_MIN, BEQZ_IMM_MAX); err != nil {
			return
		}
		codes = append(codes, MakeCodeBeqz(rs1, imm))
	case "jal":
		if err = operands(words, 2); err != nil {
			return
		}
		if rd, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if imm, err = target(words[2], JAL_IMM_MIN, JAL_IMM_MAX); err != nil {
			return
		}
		codes = append(codes, MakeCodeJal(rd, imm))
	case "sd":
		if err = operands(words, 3); err != nil {
			return
		}
		if rs2, err = asm.registerOf(words[1]); err != nil {
			return
		}
		if rs1, err = asm.registerOf(words[2]); err != nil {
			return
		}
		if imm, err = asm.immediateOf(words[3], SD_IMM_MIN, SD_IMM_MAX); err != nil {
			return
		}
		codes = append(codes, MakeCodeSd(rs1, rs2, imm))
	case "ecall":
		if err = operands(words, 0); err != nil {
			return
		}
		codes = append(codes, MakeCodeEcall())
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeMissing
			return
		}
		for _, word := range words[1:] {
			var value int64
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			codes = append(codes, Decode(uint32(value)))
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
