package tree

import (
	"math/bits"

	"golang.org/x/xerrors"
)

// MinKey is the lowest valid node key in any tree: a terminal's key is never
// lower than (TerminalSize-1)<<1 | 1.
const MinKey = (TerminalSize - 1) << 1 | 1

// Validate recursively checks this node and its subtree against size, the
// number of entries the subtree is expected to address, appending every key
// encountered (including this node's own) to keys for the caller to check
// for duplicates afterward.
func (n *Node) Validate(keys *[]uint64, size uint64, cyclic bool) error {
	*keys = append(*keys, n.key)

	if !n.terminal {
		if n.struckCount == 0 {
			if !cyclic && (n.right != nil || n.left != nil) {
				return xerrors.Errorf("unexpected right and/or left nodes at unstruck node %d", n.key)
			}
		} else {
			bit := n.bits.Bit(n.bitNumber)

			var rightSize, leftSize uint64
			switch {
			case n.bits.IsSet(size, n.bitNumber+1):
				rightSize, leftSize = bit, bit
			case n.bits.IsSet(size, n.bitNumber):
				rightSize, leftSize = bit, n.bits.Clear(size, n.bitNumber)
			default:
				rightSize, leftSize = size, 0
			}

			right := n.Right()

			var rightLeftStruckCount uint64
			var hasLeft bool

			if rightSize != size {
				left := n.Left()
				rightLeftStruckCount = right.struckCount + left.struckCount
				hasLeft = true
			} else {
				if n.left != nil {
					return xerrors.Errorf("unexpected left node at non-terminal node %d", n.key)
				}
				if _, ok := n.persist.RestoreNodeState(n.key - 1); ok {
					return xerrors.Errorf("unexpected left node at non-terminal node %d", n.key)
				}
				rightLeftStruckCount = right.struckCount
			}

			if n.struckCount != rightLeftStruckCount {
				return xerrors.Errorf("struck count %d doesn't match sum of right/left struck counts %d at node %d",
					n.struckCount, rightLeftStruckCount, n.key)
			}

			if err := right.Validate(keys, rightSize, cyclic); err != nil {
				return err
			}
			if hasLeft {
				if err := n.Left().Validate(keys, leftSize, cyclic); err != nil {
					return err
				}
			}
		}

		if n.struckBitmap != 0 {
			return xerrors.Errorf("non-zero struck bitmap at non-terminal node %d", n.key)
		}
	} else {
		if n.right != nil || n.left != nil {
			return xerrors.Errorf("unexpected right and/or left nodes at terminal node %d", n.key)
		}

		struckBitCount := uint64(bits.OnesCount64(n.struckBitmap))
		if struckBitCount != n.struckCount {
			return xerrors.Errorf("struck bit count %d doesn't match struck count %d at terminal node %d",
				struckBitCount, n.struckCount, n.key)
		}
	}

	return nil
}
