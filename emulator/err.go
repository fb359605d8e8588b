package emulator

import (
	"errors"

	"github.com/ezrec/urv/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrLimit indicates a program that did not halt within the tick limit.
type ErrLimit struct {
	Pc    uint32
	Ticks int
}

func (err *ErrLimit) Error() string {
	return f("pc 0x%08x %v after %d ticks", err.Pc, ErrTickLimit, err.Ticks)
}

func (err *ErrLimit) Unwrap() error {
	return ErrTickLimit
}
