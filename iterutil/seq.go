package iterutil

import (
	"iter"
)

func WithIndex[E any](s iter.Seq[E]) iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		index := 0
		for v := range s {
			if !yield(index, v) {
				return
			}
			index++
		}
	}
}

func Map[T any, Slice ~[]E, E any](s Slice, f func(i int, v E) T) []T {
	result := make([]T, len(s))
	for i, v := range s {
		result[i] = f(i, v)
	}
	return result
}
