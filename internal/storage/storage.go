// Package storage holds the inverted index: word to the set of documents
// (absolute file paths) that contain it.
//
// Two backends satisfy ReverseIndex. MapStorage shards a hash map by word
// and is the default. TrieStorage keys words by their bytes in a prefix
// tree behind a single lock.
package storage

// ReverseIndex is a concurrent word to document-set index.
//
// Put and Get may be called from any number of goroutines. Remove is
// serialized by the caller but may run concurrently with Put and Get.
// A word is present only while at least one document holds it.
type ReverseIndex interface {
	// Put adds doc to the set of documents containing word.
	Put(word, doc string)

	// Get returns a snapshot of the documents containing word, in no
	// particular order. The slice is owned by the caller.
	Get(word string) []string

	// Remove drops every document in docs from every word, deleting words
	// whose sets become empty.
	Remove(docs map[string]struct{})

	// Size returns the number of words with at least one document.
	// The value is eventually consistent with concurrent writers.
	Size() int
}

// Kind names a storage backend.
type Kind string

const (
	// KindMap selects MapStorage.
	KindMap Kind = "map"
	// KindTrie selects TrieStorage.
	KindTrie Kind = "trie"
)

// New returns an empty index of the given kind. Unknown kinds get MapStorage.
func New(kind Kind) ReverseIndex {
	if kind == KindTrie {
		return NewTrieStorage()
	}
	return NewMapStorage(DefaultShards)
}

// docSet is the per-word set of documents.
type docSet map[string]struct{}

func (s docSet) slice() []string {
	out := make([]string, 0, len(s))
	for doc := range s {
		out = append(out, doc)
	}
	return out
}

// removeAll deletes docs from s and reports whether s is now empty.
func (s docSet) removeAll(docs map[string]struct{}) bool {
	// Iterate the smaller side.
	if len(docs) < len(s) {
		for doc := range docs {
			delete(s, doc)
		}
	} else {
		for doc := range s {
			if _, ok := docs[doc]; ok {
				delete(s, doc)
			}
		}
	}
	return len(s) == 0
}
