// Package badger adapts a github.com/iotaledger/hive.go/core/kvstore-backed
// store (badger or, for tests, mapdb) into a persist.Manager, so a
// permutation's node and index/value state survives across process
// lifetimes. Grounded on trie.go's hive_adaptor.HiveKVStoreAdaptor: key
// partitions by a one-byte prefix, panic-on-unexpected-error via mustNoErr.
package badger

import (
	"encoding/binary"
	"errors"

	"github.com/iotaledger/hive.go/core/kvstore"

	"github.com/iotaledger/lazyshuffle/persist"
)

const (
	prefixNode    = byte(0x01)
	prefixIdx2Val = byte(0x02)
	prefixVal2Idx = byte(0x03)
	prefixHeader  = byte(0x04)
)

var headerKey = []byte{0x00}

// Manager adapts a kvstore.KVStore to persist.Manager.
type Manager struct {
	kvs kvstore.KVStore
}

// New wraps an already-open hive.go KVStore (e.g. badger.New(db) or
// mapdb.NewMapDB()) as a persist.Manager.
func New(kvs kvstore.KVStore) *Manager {
	return &Manager{kvs: kvs}
}

func mustNoErr(err error) {
	if err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		panic(err)
	}
}

func partitionKey(prefix byte, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefix
	copy(out[1:], key)
	return out
}

func uint64Key(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func int64Key(v int64) []byte {
	return uint64Key(uint64(v))
}

func (m *Manager) get(prefix byte, key []byte) ([]byte, bool) {
	v, err := m.kvs.Get(partitionKey(prefix, key))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, false
	}
	mustNoErr(err)
	return v, v != nil
}

func (m *Manager) set(prefix byte, key, value []byte) {
	mustNoErr(m.kvs.Set(partitionKey(prefix, key), value))
}

func (m *Manager) del(prefix byte, key []byte) {
	mustNoErr(m.kvs.Delete(partitionKey(prefix, key)))
}

func (m *Manager) SaveNodeState(key uint64, state persist.NodeState) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], state.Count)
	binary.BigEndian.PutUint64(buf[8:16], state.Bitmap)
	m.set(prefixNode, uint64Key(key), buf[:])
}

func (m *Manager) RestoreNodeState(key uint64) (persist.NodeState, bool) {
	v, ok := m.get(prefixNode, uint64Key(key))
	if !ok {
		return persist.NodeState{}, false
	}
	return persist.NodeState{
		Count:  binary.BigEndian.Uint64(v[0:8]),
		Bitmap: binary.BigEndian.Uint64(v[8:16]),
	}, true
}

func (m *Manager) DeleteNodeState(key uint64) {
	m.del(prefixNode, uint64Key(key))
}

func (m *Manager) SaveIndexValue(i uint64, v int64) {
	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], uint64(v))
	m.set(prefixIdx2Val, uint64Key(i), vb[:])

	var ib [8]byte
	binary.BigEndian.PutUint64(ib[:], i)
	m.set(prefixVal2Idx, int64Key(v), ib[:])
}

func (m *Manager) DeleteIndexValue(i uint64, v int64) {
	m.del(prefixIdx2Val, uint64Key(i))
	m.del(prefixVal2Idx, int64Key(v))
}

func (m *Manager) ValueAt(i uint64) (int64, bool) {
	v, ok := m.get(prefixIdx2Val, uint64Key(i))
	if !ok {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(v)), true
}

func (m *Manager) IndexOf(v int64) (uint64, bool) {
	b, ok := m.get(prefixVal2Idx, int64Key(v))
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}

func (m *Manager) Header() (persist.Header, bool) {
	b, ok := m.get(prefixHeader, headerKey)
	if !ok {
		return persist.Header{}, false
	}
	return persist.Header{
		Size:   binary.BigEndian.Uint64(b[0:8]),
		Cyclic: b[8] != 0,
	}, true
}

func (m *Manager) SaveHeader(h persist.Header) {
	var buf [9]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Size)
	if h.Cyclic {
		buf[8] = 1
	}
	m.set(prefixHeader, headerKey, buf[:])
}
