package watcher

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// excluded reports whether path, found while walking root, matches an
// exclude pattern by its root-relative path or by its base name.
func (w *PollWatcher) excluded(root, path string) bool {
	if len(w.opts.Exclude) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range w.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
