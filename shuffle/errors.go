package shuffle

import (
	"golang.org/x/xerrors"

	"github.com/iotaledger/lazyshuffle/persist"
)

var (
	// ErrIndexRange is returned by ValueAt when the requested index falls
	// outside [0, Size()).
	ErrIndexRange = xerrors.New("shuffle: index out of range")

	// ErrShrink is returned by Resize when asked to shrink a shuffler that
	// has already struck at least one entry.
	ErrShrink = xerrors.New("shuffle: cannot shrink a partially used shuffler")

	// ErrCyclicExhausted is returned by Resize when the cyclic permutation
	// has already closed its single cycle; there is nothing left to extend.
	ErrCyclicExhausted = xerrors.New("shuffle: cannot resize a completed cyclic shuffler")

	// ErrIncompatibleManager is the same sentinel persist.BindHeader
	// returns, re-exported so callers that only import shuffle can still
	// match it with errors.Is against New's return value.
	ErrIncompatibleManager = persist.ErrIncompatibleManager
)
