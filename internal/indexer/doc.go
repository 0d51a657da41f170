// Package indexer keeps an in-memory word index of watched files up to date
// and answers exact-word searches while indexing runs.
//
// An Indexer consumes change events from a watcher. New files are
// tokenized on a bounded worker pool; deleted files are removed from the
// index only after every in-flight task has finished, so a removal can
// never be undone by a tokenizer that was still writing. Before a file is
// tokenized its size is checked against available memory; a file that does
// not fit is retried later if other files are in flight, and reported as
// FileTooBig otherwise.
//
// Per-file problems never stop indexing. They are published on the lossy
// Errors channel for observers.
package indexer
