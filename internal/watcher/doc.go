// Package watcher detects edits to the knowledge base source files.
//
// fsnotify watches the directories holding the sources, since editors and
// exporters commonly replace a file by renaming a temporary over it. Where
// fsnotify is unavailable (network mounts, some container volumes) the
// watcher falls back to polling file metadata.
//
// Events are debounced so a burst of writes produces one change batch:
//
//	w, err := watcher.New(paths, watcher.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() {
//	    for batch := range w.Changes() {
//	        reloader.Trigger()
//	        _ = batch
//	    }
//	}()
//	return w.Start(ctx)
package watcher
