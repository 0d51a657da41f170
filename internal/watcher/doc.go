// Package watcher detects changes to registered files and directories by
// polling the filesystem.
//
// Registration requests are applied by one goroutine and a second
// goroutine runs the poll loop. Each poll cycle diffs the current state of
// every watched file against what was seen before and emits at most two
// events: a Deleted event for files that vanished or changed, then a New
// event for files that appeared or changed. A modified file is therefore
// reported as deleted and then new, so a consumer can drop stale content
// before reading the fresh one.
//
// When Options.Notify is set, fsnotify is used only to trigger an early
// poll. Polling stays the source of truth, and the watcher falls back to
// plain polling if fsnotify cannot start.
//
// Usage:
//
//	w, err := watcher.NewPollWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	w.Start(ctx)
//	defer w.Close()
//
//	if err := w.Watch(ctx, "/path/to/notes"); err != nil {
//	    return err
//	}
//
//	for ev := range w.Events() {
//	    switch ev.Kind {
//	    case watcher.EventDeleted:
//	        // drop ev.Files from the index
//	    case watcher.EventNew:
//	        // (re)index ev.Files
//	    }
//	}
package watcher
