package shuffle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testResize(t *testing.T, cyclic bool) {
	t.Helper()

	// Growing from a terminal-sized tree to a multi-level one must not
	// disturb already-struck state.
	small, err := New(20, cyclic)
	require.NoError(t, err)
	require.NoError(t, small.Validate())
	require.NoError(t, small.Resize(200))
	require.NoError(t, small.Validate())

	testSize := uint64(20)
	s, err := New(testSize, cyclic)
	require.NoError(t, err)

	indexValue := make(map[uint64]uint64)

	for round := 0; round < 20; round++ {
		for index := testSize / 2; index < testSize; index++ {
			v, err := s.ValueAt(index)
			require.NoError(t, err)
			indexValue[index] = v
		}

		require.NoError(t, s.Validate())

		testSize = testSize * 3 / 2
		require.NoError(t, s.Resize(testSize))

		if round%2 == 0 {
			// Recreate the shuffler against the same store, to confirm a
			// resize's effects are fully persisted, not just in-memory.
			s, err = New(testSize, cyclic, WithPersistence(s.PersistenceManager()))
			require.NoError(t, err)
		}

		require.NoError(t, s.Validate())

		for index, value := range indexValue {
			v, err := s.ValueAt(index)
			require.NoError(t, err)
			require.Equal(t, value, v)

			i, ok := s.IndexOf(value)
			require.True(t, ok)
			require.Equal(t, index, i)
		}
	}

	if !cyclic {
		for index := uint64(0); index < testSize; index++ {
			v, err := s.ValueAt(index)
			require.NoError(t, err)
			indexValue[index] = v
		}

		// Growing a fully-consumed non-cyclic shuffler is always allowed;
		// only shrinking a partially used one is rejected.
		require.NoError(t, s.Resize(testSize+1))
	} else {
		assertSingleCycle(t, s)
		require.ErrorIs(t, s.Resize(testSize+1), ErrCyclicExhausted)
	}
}

func TestResizeNonCyclic(t *testing.T) {
	testResize(t, false)
}

func TestResizeCyclic(t *testing.T) {
	testResize(t, true)
}
