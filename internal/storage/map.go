package storage

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 32

// mapShard is one lock domain of MapStorage.
type mapShard struct {
	sync.RWMutex
	words map[string]docSet
}

// MapStorage is a ReverseIndex over a sharded hash map. Each word lives in
// exactly one shard, so writers to different words rarely contend.
type MapStorage struct {
	seed   maphash.Seed
	shards []*mapShard
	size   atomic.Int64
}

// NewMapStorage creates a MapStorage with n shards (at least one).
func NewMapStorage(n int) *MapStorage {
	if n < 1 {
		n = 1
	}
	m := &MapStorage{
		seed:   maphash.MakeSeed(),
		shards: make([]*mapShard, n),
	}
	for i := range m.shards {
		m.shards[i] = &mapShard{words: make(map[string]docSet)}
	}
	return m
}

func (m *MapStorage) shardFor(word string) *mapShard {
	return m.shards[maphash.String(m.seed, word)%uint64(len(m.shards))]
}

// Put implements ReverseIndex.
func (m *MapStorage) Put(word, doc string) {
	sh := m.shardFor(word)
	sh.Lock()
	defer sh.Unlock()

	set, ok := sh.words[word]
	if !ok {
		set = make(docSet, 1)
		sh.words[word] = set
		m.size.Add(1)
	}
	set[doc] = struct{}{}
}

// Get implements ReverseIndex.
func (m *MapStorage) Get(word string) []string {
	sh := m.shardFor(word)
	sh.RLock()
	defer sh.RUnlock()

	set, ok := sh.words[word]
	if !ok {
		return []string{}
	}
	return set.slice()
}

// Remove implements ReverseIndex. Shards are locked one at a time so
// readers of other shards are never blocked by a bulk removal.
func (m *MapStorage) Remove(docs map[string]struct{}) {
	if len(docs) == 0 {
		return
	}
	for _, sh := range m.shards {
		sh.Lock()
		for word, set := range sh.words {
			if set.removeAll(docs) {
				delete(sh.words, word)
				m.size.Add(-1)
			}
		}
		sh.Unlock()
	}
}

// Size implements ReverseIndex.
func (m *MapStorage) Size() int {
	return int(m.size.Load())
}
