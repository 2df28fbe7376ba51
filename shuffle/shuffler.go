// Package shuffle implements lazy random permutations over [0, N): a
// non-cyclic variant (lazy Fisher-Yates, the classic "only requirement is
// no index/value pair repeats") and a cyclic variant (a lazy Sattolo
// shuffle, which additionally guarantees the generated values form a single
// N-cycle). Both materialize only the entries that have actually been
// queried, backed by a pluggable persist.Manager, so the full permutation
// never needs to be held in memory or written out up front.
package shuffle

import (
	"math/bits"
	"math/rand"
	"time"

	"golang.org/x/xerrors"

	"github.com/iotaledger/lazyshuffle/bitutil"
	"github.com/iotaledger/lazyshuffle/persist"
	"github.com/iotaledger/lazyshuffle/tree"
)

// Shuffler is a lazy random permutation over [0, size). It is not safe for
// concurrent use by more than one goroutine.
type Shuffler struct {
	size   uint64
	cyclic bool

	rnd  *rand.Rand
	pm   persist.Manager
	bits *bitutil.Manager
	root *tree.Node

	remaining uint64
}

// Option configures a Shuffler at construction.
type Option func(*config)

type config struct {
	pm   persist.Manager
	seed int64
}

// WithPersistence swaps in a durable or otherwise non-default
// persist.Manager. Without this option, state lives only in memory and
// is lost when the Shuffler is garbage collected.
func WithPersistence(pm persist.Manager) Option {
	return func(c *config) { c.pm = pm }
}

// WithSeed fixes the random source's seed, for reproducible test runs.
func WithSeed(seed int64) Option {
	return func(c *config) { c.seed = seed }
}

// New constructs a Shuffler over [0, size) with the given cyclic mode. By
// default state is kept in an unshared in-memory persist.Manager; pass
// WithPersistence to share state across process lifetimes or instances.
func New(size uint64, cyclic bool, opts ...Option) (*Shuffler, error) {
	c := config{seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.pm == nil {
		c.pm = persist.NewMemory()
	}

	if err := persist.BindHeader(c.pm, persist.Header{Size: size, Cyclic: cyclic}); err != nil {
		return nil, err
	}

	s := &Shuffler{
		size:   size,
		cyclic: cyclic,
		rnd:    rand.New(rand.NewSource(c.seed)),
		pm:     c.pm,
	}
	s.buildRoot()

	return s, nil
}

// Size returns the current range size.
func (s *Shuffler) Size() uint64 { return s.size }

// Cyclic reports whether this Shuffler generates a single N-cycle.
func (s *Shuffler) Cyclic() bool { return s.cyclic }

// PersistenceManager returns the manager backing this Shuffler's state, so
// a fresh Shuffler can be reconstructed against the same store later.
func (s *Shuffler) PersistenceManager() persist.Manager { return s.pm }

// Stats is a snapshot of a Shuffler's progress, useful for a caller deciding
// when to checkpoint or report progress over a large range.
type Stats struct {
	Size      uint64
	Remaining uint64
	Cyclic    bool
}

// Stats returns a snapshot of the Shuffler's current size and how many
// entries remain unstruck.
func (s *Shuffler) Stats() Stats {
	return Stats{Size: s.size, Remaining: s.remaining, Cyclic: s.cyclic}
}

// sizeBitLength is max(bits.Len64(size-1), terminalSizeBitCount): the
// number of bits needed to address size-1, rounded up to cover at least one
// full terminal leaf.
func (s *Shuffler) sizeBitLength() int {
	n := bits.Len64(s.size - 1)
	if n < terminalSizeBitCount {
		return terminalSizeBitCount
	}
	return n
}

const terminalSizeBitCount = 6 // bits.Len64(tree.TerminalSize-1)

// buildRoot (re)builds the root node for the current size. On first
// construction it restores the root from the persistence manager, if a
// record for it is present. On resize, it builds a
// taller root and stamps the right spine down to the prior root's level
// with the prior root's struck count, so the old subtree remains reachable.
func (s *Shuffler) buildRoot() {
	resizing := s.root != nil

	sizeBitLength := s.sizeBitLength()

	if !resizing || sizeBitLength != s.root.BitNumber()+1 {
		s.bits = bitutil.NewManager(sizeBitLength + 1)

		newRoot := tree.NewRoot(s.pm, s.bits, sizeBitLength-1, !resizing)

		if resizing {
			rootStruckCount := s.root.StruckCount()

			if rootStruckCount != 0 {
				update := newRoot
				for {
					update.SetStruckCount(rootStruckCount)
					update.SaveState()

					// An interior root-spine node always has a right child.
					update = update.Right()

					if update.StruckCount() != 0 {
						break
					}
				}
			}
		}

		s.root = newRoot
	}

	s.remaining = s.size - s.root.StruckCount()
}

// nextValue selects and strikes a uniformly random unstruck entry.
func (s *Shuffler) nextValue() uint64 {
	value := s.root.Strike(uint64(s.rnd.Int63n(int64(s.remaining))))
	s.remaining--
	return value
}

// ValueAt returns the value permuted to index, generating and persisting it
// on first access and returning the stored value on every subsequent call.
func (s *Shuffler) ValueAt(index uint64) (uint64, error) {
	if index >= s.size {
		return 0, ErrIndexRange
	}

	storedValue, found := s.pm.ValueAt(index)

	var value uint64
	var randomized bool

	if !s.cyclic {
		randomized = !found
		if randomized {
			value = s.nextValue()
		} else {
			value = uint64(storedValue)
		}
	} else {
		randomized = !found || storedValue < 0
		if randomized {
			var loopStart uint64
			var notLoopStart int64

			if !found {
				loopStart = index
				notLoopStart = negInt64(index)
			} else {
				loopStart = uint64(^storedValue)
				notLoopStart = storedValue

				s.pm.DeleteIndexValue(index, storedValue)
			}

			// Reserving the loop start prevents it closing onto itself
			// before the whole cycle has been stitched together.
			s.root.Reserve(loopStart)
			s.remaining--

			reserveRemaining := s.remaining

			if s.remaining != 0 {
				value = s.nextValue()

				loopEnd, ok := s.pm.IndexOf(negInt64(value))
				if !ok {
					loopEnd = value
				}

				s.pm.SaveIndexValue(loopEnd, notLoopStart)

				s.root.Unreserve(loopStart)
				s.remaining = reserveRemaining
			} else {
				// Closing the final loop.
				value = loopStart
			}
		} else {
			value = uint64(storedValue)
		}
	}

	if randomized {
		s.pm.SaveIndexValue(index, posInt64(value))
	}

	// A value outside [0, size) can only reach here via a corrupted or
	// misbehaving persist.Manager; spec.md §7 requires this case to be
	// caught by an internal bounds assertion rather than handed to the
	// caller silently.
	if value >= s.size {
		panic(xerrors.Errorf("shuffle: persistence manager returned out-of-range value %d for index %d (size %d)", value, index, s.size))
	}

	return value, nil
}

// IndexOf returns the index that produces value, if value has already been
// generated by a call to ValueAt.
func (s *Shuffler) IndexOf(value uint64) (uint64, bool) {
	i, ok := s.pm.IndexOf(posInt64(value))
	return i, ok
}

// Resize grows (or, for an untouched shuffler, shrinks) the permutation's
// range to newSize. A shuffler that has struck any entry cannot be shrunk,
// and a cyclic shuffler whose single cycle has already closed cannot be
// resized at all.
func (s *Shuffler) Resize(newSize uint64) error {
	if newSize == s.size {
		return nil
	}
	if newSize < s.size && s.root.StruckCount() != 0 {
		return ErrShrink
	}
	if s.cyclic && s.remaining == 0 {
		return ErrCyclicExhausted
	}

	s.size = newSize
	s.buildRoot()

	// The bound header records the parameters a manager was first used
	// with; keep it current so a Shuffler reconstructed against the same
	// manager after a resize doesn't get rejected as incompatible.
	s.pm.SaveHeader(persist.Header{Size: s.size, Cyclic: s.cyclic})

	return nil
}

// negInt64 and posInt64 implement the open-loop marker encoding ValueAt
// uses: a stored value >=0 is a closed link, <0 marks the
// current end of an open loop whose start is the bitwise complement.
func negInt64(v uint64) int64 { return ^int64(v) }
func posInt64(v uint64) int64 { return int64(v) }
