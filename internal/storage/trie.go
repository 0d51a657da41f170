package storage

import (
	"sync"
	"sync/atomic"
)

type trieNode struct {
	children map[byte]*trieNode
	docs     docSet
}

// TrieStorage is a ReverseIndex over a byte-wise prefix tree guarded by one
// RWMutex. Remove prunes branches that no longer lead to any document.
type TrieStorage struct {
	mu   sync.RWMutex
	root *trieNode
	size atomic.Int64
}

// NewTrieStorage creates an empty TrieStorage.
func NewTrieStorage() *TrieStorage {
	return &TrieStorage{root: &trieNode{}}
}

// Put implements ReverseIndex.
func (t *TrieStorage) Put(word, doc string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for i := 0; i < len(word); i++ {
		if node.children == nil {
			node.children = make(map[byte]*trieNode)
		}
		next, ok := node.children[word[i]]
		if !ok {
			next = &trieNode{}
			node.children[word[i]] = next
		}
		node = next
	}

	if len(node.docs) == 0 {
		t.size.Add(1)
	}
	if node.docs == nil {
		node.docs = make(docSet, 1)
	}
	node.docs[doc] = struct{}{}
}

// Get implements ReverseIndex.
func (t *TrieStorage) Get(word string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.root
	for i := 0; i < len(word) && node != nil; i++ {
		node = node.children[word[i]]
	}
	if node == nil || len(node.docs) == 0 {
		return []string{}
	}
	return node.docs.slice()
}

// Remove implements ReverseIndex.
func (t *TrieStorage) Remove(docs map[string]struct{}) {
	if len(docs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(t.root, docs)
}

// prune removes docs below node and reports whether node can be dropped.
func (t *TrieStorage) prune(node *trieNode, docs map[string]struct{}) bool {
	if len(node.docs) > 0 && node.docs.removeAll(docs) {
		node.docs = nil
		t.size.Add(-1)
	}
	for b, child := range node.children {
		if t.prune(child, docs) {
			delete(node.children, b)
		}
	}
	return len(node.docs) == 0 && len(node.children) == 0
}

// Size implements ReverseIndex.
func (t *TrieStorage) Size() int {
	return int(t.size.Load())
}
