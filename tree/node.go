// Package tree implements the binary strike tree a permutation engine
// builds lazily over [0, N): each terminal manages a 64-bit bitmap of struck
// entries, each interior node only the struck count of its subtree. Nodes
// are constructed on first descent, not up front, and restored from a
// persist.Manager only when their parent's struck count says there is
// something to restore.
package tree

import (
	"github.com/iotaledger/lazyshuffle/bitutil"
	"github.com/iotaledger/lazyshuffle/persist"
)

// TerminalSize is the number of entries a terminal node's bitmap covers.
const TerminalSize = 64

// terminalBitNumber is the bit_number value a terminal node holds: bit
// numbers count down from the root, and a terminal is reached once there
// are only TerminalSize entries left to address (bit number 5, one less
// than log2(64)).
const terminalBitNumber = 5

// terminalBits is the shared bit manager used for bitmap manipulation
// within a terminal node's 64-bit leaf, independent of the tree's own
// height-scaled Manager.
var terminalBits = bitutil.NewManager(TerminalSize)

const (
	bitCountMask2 = 0x5555555555555555
	bitCountMask4 = 0x3333333333333333
	bitCountMask8 = 0x0F0F0F0F0F0F0F0F
)

// Node is a node in the strike tree. A Node holds no record of the capacity
// of the range it covers: that is only ever threaded through as a parameter
// to Validate, never stored or cached here.
type Node struct {
	persist   persist.Manager
	bits      *bitutil.Manager
	key       uint64
	bitNumber int
	terminal  bool

	struckCount  uint64
	struckBitmap uint64

	right *Node
	left  *Node
}

// newNode constructs a node for key/bitNumber, restoring its state from p if
// restore is true and a record is present; otherwise the node starts empty.
func newNode(p persist.Manager, bits *bitutil.Manager, key uint64, bitNumber int, restore bool) *Node {
	n := &Node{
		persist:   p,
		bits:      bits,
		key:       key,
		bitNumber: bitNumber,
		terminal:  bitNumber == terminalBitNumber,
	}
	if restore {
		if state, ok := p.RestoreNodeState(key); ok {
			n.struckCount = state.Count
			n.struckBitmap = state.Bitmap
		}
	}
	return n
}

// NewRoot constructs the root node for a tree whose bit manager has been
// sized to rootBitNumber+2 bits (i.e. bits.AllBits() is the root's key).
// restore is false only when a resize builds a new, taller root whose key
// has never been persisted; on construction the root is always looked up
// in p.
func NewRoot(p persist.Manager, bits *bitutil.Manager, rootBitNumber int, restore bool) *Node {
	return newNode(p, bits, bits.AllBits(), rootBitNumber, restore)
}

// saveState persists or, once a subtree is empty again, deletes this node's
// state. Invoked after every struck-count mutation, always after any child's
// own saveState — state is written bottom-up along the descent path.
func (n *Node) saveState() {
	if n.struckCount != 0 {
		n.persist.SaveNodeState(n.key, persist.NodeState{Count: n.struckCount, Bitmap: n.struckBitmap})
	} else {
		n.persist.DeleteNodeState(n.key)
	}
}

// Key returns the node's persistence key.
func (n *Node) Key() uint64 { return n.key }

// BitNumber returns the bit position this node is responsible for.
func (n *Node) BitNumber() int { return n.bitNumber }

// Terminal reports whether this node manages a 64-bit leaf bitmap directly
// rather than delegating to right/left children.
func (n *Node) Terminal() bool { return n.terminal }

// StruckCount returns the number of struck entries in or below this node.
func (n *Node) StruckCount() uint64 { return n.struckCount }

// SetStruckCount overwrites this node's struck count directly, without
// touching its descendants. Used only by Resize, to stamp the count of a
// prior root onto the spine of nodes built above it.
func (n *Node) SetStruckCount(count uint64) { n.struckCount = count }

// SaveState persists (or, if now empty, deletes) this node's state. Exposed
// for Resize's root-spine stamping; Strike/Reserve/Unreserve call it
// internally after every mutation.
func (n *Node) SaveState() { n.saveState() }

// Right returns the right child (bit clear), constructing it on first use.
// A child is restored from persistence only if this node's struck count is
// non-zero — a zero-struck-count node can have no persisted descendants.
func (n *Node) Right() *Node {
	if n.right == nil {
		key := n.key - n.bits.Bit(n.bitNumber+1)
		n.right = newNode(n.persist, n.bits, key, n.bitNumber-1, n.struckCount != 0)
	}
	return n.right
}

// Left returns the left child (bit set), constructing it on first use.
func (n *Node) Left() *Node {
	if n.left == nil {
		key := n.key - 1
		n.left = newNode(n.persist, n.bits, key, n.bitNumber-1, n.struckCount != 0)
	}
	return n.left
}

// Strike selects the incrementalIndex-th entry not yet struck in this
// subtree, marks it struck, and returns its true index.
func (n *Node) Strike(incrementalIndex uint64) uint64 {
	var index uint64

	if !n.terminal {
		right := n.Right()
		rightNormalizedIndex := incrementalIndex + right.struckCount

		if n.bits.IsClear(rightNormalizedIndex, n.bitNumber) {
			index = right.Strike(incrementalIndex)
		} else {
			cleared := n.bits.Clear(rightNormalizedIndex, n.bitNumber)
			index = n.bits.Set(n.Left().Strike(cleared), n.bitNumber)
		}
	} else {
		index = n.selectUnstruck(incrementalIndex)
		n.struckBitmap = terminalBits.Set(n.struckBitmap, int(index))
	}

	n.struckCount++
	n.saveState()

	return index
}

// selectUnstruck finds the position, within this terminal's 64-bit leaf, of
// the (remaining+1)-th unstruck bit. It implements the balanced bit-count
// cascade of Hacker's Delight fig. 5-2, ported literally off the unstruck
// bitmap so as to match the reference implementation's exact tie-breaking
// on entries with equal bit counts.
func (n *Node) selectUnstruck(remaining uint64) uint64 {
	bitCount1 := n.struckBitmap ^ terminalBits.AllBits()
	bitCount2 := bitCount1 - (bitCount1 >> 1 & bitCountMask2)
	bitCount4 := (bitCount2 & bitCountMask4) + (bitCount2 >> 2 & bitCountMask4)
	bitCount8 := (bitCount4 + (bitCount4 >> 4)) & bitCountMask8
	bitCount16 := bitCount8 + (bitCount8 >> 8)
	bitCount32 := bitCount16 + (bitCount16 >> 16)

	var index uint64

	rightCount := bitCount32 & 0x3F
	if rightCount <= remaining {
		remaining -= rightCount
		index = 0x20
	} else {
		index = 0x00
	}

	rightCount = bitCount16 >> index & 0x1F
	if rightCount <= remaining {
		remaining -= rightCount
		index |= 0x10
	}

	rightCount = bitCount8 >> index & 0x0F
	if rightCount <= remaining {
		remaining -= rightCount
		index |= 0x08
	}

	rightCount = bitCount4 >> index & 0x07
	if rightCount <= remaining {
		remaining -= rightCount
		index |= 0x04
	}

	rightCount = bitCount2 >> index & 0x03
	if rightCount <= remaining {
		remaining -= rightCount
		index |= 0x02
	}

	rightCount = bitCount1 >> index & 0x01
	if rightCount <= remaining {
		index |= 0x01
	}

	return index
}

// Reserve marks index struck without selecting it randomly, used to pin the
// start of an open cyclic loop so it cannot be closed onto itself until the
// loop is otherwise exhausted.
func (n *Node) Reserve(index uint64) {
	if !n.terminal {
		if n.bits.IsClear(index, n.bitNumber) {
			n.Right().Reserve(index)
		} else {
			n.Left().Reserve(index)
		}
	} else {
		n.struckBitmap = terminalBits.Set(n.struckBitmap, int(index&(TerminalSize-1)))
	}

	n.struckCount++
	n.saveState()
}

// Unreserve undoes a prior Reserve of index.
func (n *Node) Unreserve(index uint64) {
	if !n.terminal {
		if n.bits.IsClear(index, n.bitNumber) {
			n.Right().Unreserve(index)
		} else {
			n.Left().Unreserve(index)
		}
	} else {
		n.struckBitmap = terminalBits.Clear(n.struckBitmap, int(index&(TerminalSize-1)))
	}

	n.struckCount--
	n.saveState()
}
