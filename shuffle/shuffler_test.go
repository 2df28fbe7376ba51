package shuffle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/lazyshuffle/persist"
)

const testSize = uint64(3333)

func newTestShuffler(t *testing.T, cyclic bool, opts ...Option) *Shuffler {
	t.Helper()
	s, err := New(testSize, cyclic, opts...)
	require.NoError(t, err)
	return s
}

func generate(t *testing.T, s *Shuffler, indexes, values []int64) {
	t.Helper()
	for index := uint64(0); index < s.Size(); index++ {
		value, err := s.ValueAt(index)
		require.NoError(t, err)

		require.Equal(t, int64(-1), indexes[value], "value %d generated twice", value)
		require.Equal(t, int64(-1), values[index], "index %d generated twice", index)

		indexes[value] = int64(index)
		values[index] = int64(value)
	}
	require.NoError(t, s.Validate())
}

func compare(t *testing.T, s *Shuffler, indexes, values []int64) {
	t.Helper()
	for index := uint64(0); index < s.Size(); index++ {
		value, err := s.ValueAt(index)
		require.NoError(t, err)
		require.Equal(t, int64(index), indexes[value])
		require.Equal(t, values[index], int64(value))
	}
}

func assertSingleCycle(t *testing.T, s *Shuffler) {
	t.Helper()
	visited := make([]bool, s.Size())

	index := uint64(0)
	for {
		require.False(t, visited[index])
		visited[index] = true

		value, err := s.ValueAt(index)
		require.NoError(t, err)
		index = value

		if index == 0 {
			break
		}
	}

	for i := range visited {
		require.True(t, visited[i], "index %d never visited by the cycle", i)
	}
}

func TestNonCyclicRepeatableAndNoDuplicates(t *testing.T) {
	s := newTestShuffler(t, false)

	indexes := make([]int64, testSize)
	values := make([]int64, testSize)
	for i := range indexes {
		indexes[i], values[i] = -1, -1
	}

	generate(t, s, indexes, values)
	compare(t, s, indexes, values)
}

func TestCyclicFormsSingleCycle(t *testing.T) {
	s := newTestShuffler(t, true)

	indexes := make([]int64, testSize)
	values := make([]int64, testSize)
	for i := range indexes {
		indexes[i], values[i] = -1, -1
	}

	generate(t, s, indexes, values)
	compare(t, s, indexes, values)
	assertSingleCycle(t, s)
}

func TestIteratorNonCyclicCoversEveryIndexOnce(t *testing.T) {
	s := newTestShuffler(t, false)

	seen := make(map[uint64]bool, testSize)
	it := s.Iterate()
	count := uint64(0)
	for {
		value, ok := it.Next()
		if !ok {
			break
		}
		require.False(t, seen[value])
		seen[value] = true
		count++
	}
	require.Equal(t, testSize, count)
}

func TestIteratorCyclicReturnsToStart(t *testing.T) {
	s := newTestShuffler(t, true)

	seen := make(map[uint64]bool, testSize)
	it := s.Iterate()
	count := 0
	for {
		value, ok := it.Next()
		if !ok {
			break
		}
		require.False(t, seen[value])
		seen[value] = true
		count++
	}
	require.Equal(t, int(testSize), count)
	assertSingleCycle(t, s)
}

func TestValueAtOutOfRange(t *testing.T) {
	s := newTestShuffler(t, false)
	_, err := s.ValueAt(testSize)
	require.ErrorIs(t, err, ErrIndexRange)
}

func TestNewRejectsIncompatibleManager(t *testing.T) {
	pm := persist.NewMemory()

	_, err := New(testSize, false, WithPersistence(pm))
	require.NoError(t, err)

	_, err = New(testSize, true, WithPersistence(pm))
	require.ErrorIs(t, err, ErrIncompatibleManager)

	_, err = New(testSize+1, false, WithPersistence(pm))
	require.ErrorIs(t, err, ErrIncompatibleManager)
}

func TestPersistenceManagerSharedAcrossInstances(t *testing.T) {
	threeQuarters := testSize * 3 / 4

	pm := persist.NewMemory()

	indexes := make([]int64, testSize)
	values := make([]int64, testSize)
	for i := range indexes {
		indexes[i], values[i] = -1, -1
	}

	s1 := newTestShuffler(t, false, WithPersistence(pm))
	for index := uint64(0); index < threeQuarters; index++ {
		value, err := s1.ValueAt(index)
		require.NoError(t, err)
		indexes[value] = int64(index)
		values[index] = int64(value)
	}

	s2, err := New(testSize, false, WithPersistence(pm))
	require.NoError(t, err)

	for index := uint64(0); index < threeQuarters; index++ {
		value, err := s2.ValueAt(index)
		require.NoError(t, err)
		require.Equal(t, int64(index), indexes[value])
		require.Equal(t, values[index], int64(value))
	}

	for index := threeQuarters; index < testSize; index++ {
		value, err := s2.ValueAt(index)
		require.NoError(t, err)
		indexes[value] = int64(index)
		values[index] = int64(value)
	}

	for index := uint64(0); index < testSize; index++ {
		value, err := s2.ValueAt(index)
		require.NoError(t, err)
		require.Equal(t, int64(index), indexes[value])
		require.Equal(t, values[index], int64(value))
	}
}
