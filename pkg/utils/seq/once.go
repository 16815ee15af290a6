package seq

import (
	"iter"
	"sync/atomic"
)

// Once wraps seq so it can be ranged over a single time. Later attempts
// yield consumed as their only element.
func Once[V any](seq iter.Seq2[V, error], consumed error) iter.Seq2[V, error] {
	var used atomic.Bool
	return func(yield func(V, error) bool) {
		if used.Swap(true) {
			var zero V
			yield(zero, consumed)
			return
		}
		seq(yield)
	}
}

// Collect drains seq into a slice, stopping at the first error
func Collect[V any](seq iter.Seq2[V, error]) ([]V, error) {
	var out []V
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
