package loader

import (
	"errors"

	"github.com/ezrec/urv/translate"
)

var f = translate.From

var (
	ErrNoExecutableSegment = errors.New(f("no executable segment"))
	ErrNoTextSection       = errors.New(f("no text section"))
	ErrImageOverflow       = errors.New(f("image overflow"))
	ErrTruncated           = errors.New(f("section extends past end of file"))
)

// ErrMalformedElf is returned when the input can not be parsed as an ELF
// object, or describes contents that lie outside of the input.
type ErrMalformedElf struct {
	Err error
}

func (err *ErrMalformedElf) Error() string {
	return f("malformed elf: %v", err.Err)
}

func (err *ErrMalformedElf) Unwrap() error {
	return err.Err
}
