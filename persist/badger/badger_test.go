package badger

import (
	"testing"

	"github.com/iotaledger/hive.go/core/kvstore/mapdb"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/lazyshuffle/persist"
)

func newTestManager() *Manager {
	return New(mapdb.NewMapDB())
}

func TestNodeStateRoundTrip(t *testing.T) {
	m := newTestManager()

	_, ok := m.RestoreNodeState(7)
	require.False(t, ok)

	m.SaveNodeState(7, persist.NodeState{Count: 12, Bitmap: 0xFF00})
	got, ok := m.RestoreNodeState(7)
	require.True(t, ok)
	require.Equal(t, persist.NodeState{Count: 12, Bitmap: 0xFF00}, got)

	m.DeleteNodeState(7)
	_, ok = m.RestoreNodeState(7)
	require.False(t, ok)
}

func TestIndexValueAndHeaderRoundTrip(t *testing.T) {
	m := newTestManager()

	m.SaveIndexValue(3, -9)

	v, ok := m.ValueAt(3)
	require.True(t, ok)
	require.Equal(t, int64(-9), v)

	i, ok := m.IndexOf(-9)
	require.True(t, ok)
	require.Equal(t, uint64(3), i)

	_, ok = m.Header()
	require.False(t, ok)

	m.SaveHeader(persist.Header{Size: 500, Cyclic: true})
	h, ok := m.Header()
	require.True(t, ok)
	require.Equal(t, persist.Header{Size: 500, Cyclic: true}, h)
}
