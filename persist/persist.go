// Package persist declares the storage contract the tree and shuffle
// packages consume, plus the trivial in-memory default implementation.
package persist

import "golang.org/x/xerrors"

// NodeState is the struck count and bitmap leaves persist, keyed by a tree
// node's key.
type NodeState struct {
	Count  uint64
	Bitmap uint64
}

// Header binds a Manager to the (size, cyclic) parameters of the shuffler
// that first used it, so a manager accidentally reused by a shuffler with
// incompatible parameters is caught instead of silently corrupting state.
type Header struct {
	Size   uint64
	Cyclic bool
}

// ErrIncompatibleManager is returned by shuffle.New when a manager's
// stored Header does not match the requested (size, cyclic) parameters.
var ErrIncompatibleManager = xerrors.New("persist: manager already bound to different shuffler parameters")

// Manager is the persistence contract described in spec §6: node state
// keyed by a tree node key, and an index<->value mapping keyed on both
// sides. Implementations need not be safe for concurrent use by more than
// one Shuffler (spec §5).
type Manager interface {
	// SaveNodeState upserts the state for key.
	SaveNodeState(key uint64, state NodeState)
	// RestoreNodeState returns the state for key and whether it was present.
	RestoreNodeState(key uint64) (NodeState, bool)
	// DeleteNodeState removes key, which the caller guarantees is present.
	DeleteNodeState(key uint64)

	// SaveIndexValue upserts both the idx->val and val->idx directions.
	// v may be negative (cyclic open-loop marker encoding, see shuffle).
	SaveIndexValue(i uint64, v int64)
	// DeleteIndexValue removes both directions. The caller is responsible
	// for i and v actually being paired.
	DeleteIndexValue(i uint64, v int64)

	// ValueAt returns the value stored for index i, if any.
	ValueAt(i uint64) (int64, bool)
	// IndexOf returns the index stored for value v, if any.
	IndexOf(v int64) (uint64, bool)

	// Header returns the previously bound (size, cyclic) parameters, if any.
	Header() (Header, bool)
	// SaveHeader binds the manager to h. Called by BindHeader when a fresh
	// manager is first used, and again by Shuffler.Resize to record the
	// new size.
	SaveHeader(h Header)
}

// BindHeader enforces the open-question resolution from SPEC_FULL.md: a
// manager is bound to the parameters of the first shuffler that uses it.
// Safe to call on every construction; it is a no-op once bound.
func BindHeader(m Manager, want Header) error {
	if got, ok := m.Header(); ok {
		if got != want {
			return ErrIncompatibleManager
		}
		return nil
	}
	m.SaveHeader(want)
	return nil
}
