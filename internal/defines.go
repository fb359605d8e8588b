package internal

import (
	"iter"
)

// Defines concatenates several name/value define iterators into one.
// Later sources do not override earlier ones; consumers that collect into a
// map see the last value written.
func Defines(seqs ...iter.Seq2[string, string]) iter.Seq2[string, string] {
	return func(yield func(name, value string) bool) {
		for _, seq := range seqs {
			for name, value := range seq {
				if !yield(name, value) {
					return
				}
			}
		}
	}
}
