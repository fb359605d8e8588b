// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/urv/emulator"
	"github.com/ezrec/urv/translate"
	"github.com/ezrec/urv/view"
)

var f = translate.From

func main() {
	var quiet bool
	var verbose bool
	var assemble bool
	var output string
	var tui bool
	var base uint
	var limit int
	var lang string

	flag.BoolVar(&quiet, "q", false, "Quiet mode, no per-step trace")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&assemble, "asm", false, "FILE is assembly source")
	flag.StringVar(&output, "o", "", "With -asm, write the ELF executable here and do not execute")
	flag.BoolVar(&tui, "tui", false, "Run in the interactive viewer")
	flag.UintVar(&base, "base", emulator.DEFAULT_BASE, "Text address for -asm")
	flag.IntVar(&limit, "limit", 0, "Maximum ticks to execute, 0 for no limit")
	flag.StringVar(&lang, "lang", "", "Message language, defaults to the system locale")

	flag.Parse()

	if len(lang) != 0 {
		translate.SetLanguage(lang)
	}

	if flag.NArg() != 1 {
		log.Fatal(f("usage: %v [flags] FILE", os.Args[0]))
	}
	path := flag.Arg(0)

	if base > 0xffffffff {
		log.Fatal(f("%v: -base 0x%x out of range", path, base))
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Limit = limit

	if assemble {
		inf, err := os.Open(path)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		defer inf.Close()

		binary, err := emu.Assemble(inf, uint32(base))
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}

		if len(output) != 0 {
			err = os.WriteFile(output, binary, 0o755)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}
	} else {
		if len(output) != 0 {
			log.Fatal(f("%v: -o requires -asm", path))
		}

		binary, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}

		err = emu.Load(binary)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
	}

	if tui {
		m, err := view.Run(emu)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		if m.Err != nil {
			log.Fatalf("%v: %v", path, m.Err)
		}
		if m.Halted {
			fmt.Println(m.Result.Value)
		}
		return
	}

	if !quiet {
		emu.Cpu.Trace = log.New(os.Stdout, "", 0)
	}

	result, err := emu.Run()
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	if verbose {
		log.Print(f("%v: halted after %d ticks", path, result.Ticks))
	}

	fmt.Println(result.Value)
}
