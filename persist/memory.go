package persist

// Memory is the thin pair-of-hash-tables default Manager: one map for node
// state, one pair of maps for the index<->value mapping. Mirrors the role
// common.NewInMemoryKVStore played for the teacher's trie tests.
type Memory struct {
	nodes   map[uint64]NodeState
	idx2val map[uint64]int64
	val2idx map[int64]uint64
	header  *Header
}

// NewMemory returns a fresh, unbound in-memory Manager.
func NewMemory() *Memory {
	return &Memory{
		nodes:   make(map[uint64]NodeState),
		idx2val: make(map[uint64]int64),
		val2idx: make(map[int64]uint64),
	}
}

func (m *Memory) SaveNodeState(key uint64, state NodeState) {
	m.nodes[key] = state
}

func (m *Memory) RestoreNodeState(key uint64) (NodeState, bool) {
	s, ok := m.nodes[key]
	return s, ok
}

func (m *Memory) DeleteNodeState(key uint64) {
	delete(m.nodes, key)
}

func (m *Memory) SaveIndexValue(i uint64, v int64) {
	m.idx2val[i] = v
	m.val2idx[v] = i
}

func (m *Memory) DeleteIndexValue(i uint64, v int64) {
	delete(m.idx2val, i)
	delete(m.val2idx, v)
}

func (m *Memory) ValueAt(i uint64) (int64, bool) {
	v, ok := m.idx2val[i]
	return v, ok
}

func (m *Memory) IndexOf(v int64) (uint64, bool) {
	i, ok := m.val2idx[v]
	return i, ok
}

func (m *Memory) Header() (Header, bool) {
	if m.header == nil {
		return Header{}, false
	}
	return *m.header, true
}

func (m *Memory) SaveHeader(h Header) {
	m.header = &h
}
