package shuffle

import "context"

// Iterator walks a Shuffler's entire permutation. For a non-cyclic
// Shuffler this is equivalent to calling ValueAt(i) for i from 0 to
// Size()-1 in order. For a cyclic Shuffler, it starts at index 0 and
// follows each returned value to the next index, terminating once the
// single cycle returns to 0.
type Iterator struct {
	s         *Shuffler
	nextIndex uint64
	done      bool
}

// Iterate returns a fresh Iterator over s.
func (s *Shuffler) Iterate() *Iterator {
	return &Iterator{s: s}
}

// Next returns the next value in the iteration and true, or (0, false) once
// the iteration is exhausted.
func (it *Iterator) Next() (uint64, bool) {
	value, ok, err := it.NextContext(context.Background())
	if err != nil {
		return 0, false
	}
	return value, ok
}

// NextContext is Next with cancellation: ctx is only ever checked between
// completed ValueAt calls, never partway through one, so cancelling cannot
// leave a strike half-applied.
func (it *Iterator) NextContext(ctx context.Context) (uint64, bool, error) {
	if it.done || it.nextIndex == it.s.size {
		return 0, false, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	value, err := it.s.ValueAt(it.nextIndex)
	if err != nil {
		// size is re-read from the live Shuffler on every call, so an
		// in-range index here can only go out of range if the Shuffler was
		// shrunk mid-iteration; treat that the same as exhaustion.
		it.done = true
		return 0, false, nil
	}

	if !it.s.cyclic {
		it.nextIndex++
	} else if value != 0 {
		it.nextIndex = value
	} else {
		it.nextIndex = it.s.size
	}

	return value, true, nil
}
