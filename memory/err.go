package memory

import (
	"errors"

	"github.com/ezrec/urv/translate"
)

var f = translate.From

var (
	ErrOutOfBounds = errors.New(f("out of bounds"))
)

// ErrAccess describes an access outside of the memory image.
type ErrAccess struct {
	Addr uint32
	Size int
}

func (err *ErrAccess) Error() string {
	return f("access 0x%08x+%d %v", err.Addr, err.Size, ErrOutOfBounds)
}

func (err *ErrAccess) Unwrap() error {
	return ErrOutOfBounds
}
