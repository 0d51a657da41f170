package indexer

// Stats is an immutable snapshot of indexer counters.
type Stats struct {
	IndexedWords    int              `json:"indexed_words"`
	FilesInProgress int              `json:"files_in_progress"`
	BytesInFlight   int64            `json:"bytes_in_flight"`
	FilesIndexed    int64            `json:"files_indexed"`
	PendingTasks    int64            `json:"pending_tasks"`
	DeferredFiles   int64            `json:"deferred_files"`
	ErrorsByKind    map[string]int64 `json:"errors_by_kind"`
	DroppedErrors   int64            `json:"dropped_errors"`
	WatchedFiles    []string         `json:"watched_files"`
	WatchedDirs     []string         `json:"watched_dirs"`
}

// Busy reports whether any file is queued, being tokenized or deferred.
func (s Stats) Busy() bool {
	return s.PendingTasks > 0 || s.FilesInProgress > 0 || s.DeferredFiles > 0
}

// TotalErrors returns the number of errors reported, dropped ones included.
func (s Stats) TotalErrors() int64 {
	var n int64
	for _, c := range s.ErrorsByKind {
		n += c
	}
	return n
}

// Stats returns a snapshot of the indexer counters.
func (ix *Indexer) Stats() Stats {
	byKind := make(map[string]int64, len(errorKinds))
	for _, k := range errorKinds {
		byKind[k.String()] = ix.errCounts[k].Load()
	}
	files, dirs := ix.Paths()

	return Stats{
		IndexedWords:    ix.IndexedWordsCount(),
		FilesInProgress: ix.InProgressFileCount(),
		BytesInFlight:   ix.BytesInFlight(),
		FilesIndexed:    ix.filesIndexed.Load(),
		PendingTasks:    ix.pool.Pending(),
		DeferredFiles:   ix.deferredCount.Load(),
		ErrorsByKind:    byKind,
		DroppedErrors:   ix.errsDropped.Load(),
		WatchedFiles:    files,
		WatchedDirs:     dirs,
	}
}
