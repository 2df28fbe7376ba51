package shuffle

import (
	"sort"

	"golang.org/x/xerrors"

	"github.com/iotaledger/lazyshuffle/tree"
)

// Validate walks the entire tree, checking that every struck count and
// bitmap is internally consistent and that every materialized node key is
// unique and within the valid range for the current size. Intended for
// tests and diagnostics, not the hot path: it touches every node that has
// ever been constructed in memory.
func (s *Shuffler) Validate() error {
	if s.remaining != s.size-s.root.StruckCount() {
		return xerrors.Errorf("remaining size %d doesn't equal size %d minus root struck count %d",
			s.remaining, s.size, s.root.StruckCount())
	}

	var keys []uint64
	if err := s.root.Validate(&keys, s.size, s.cyclic); err != nil {
		return err
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	minKey := keys[0]
	maxKey := minKey - 1

	for _, key := range keys {
		if key == maxKey {
			return xerrors.Errorf("duplicate node key %d", key)
		}
		maxKey = key
	}

	if minKey < tree.MinKey {
		return xerrors.Errorf("invalid minimum node key %d", minKey)
	}

	if maxKey != minKey && maxKey >= uint64(1)<<uint(s.sizeBitLength()+1) {
		return xerrors.Errorf("invalid maximum node key %d", maxKey)
	}

	return nil
}
