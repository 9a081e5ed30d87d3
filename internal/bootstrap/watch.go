package bootstrap

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"

	"github.com/nyxflag/flagsdk/internal/catalogue"
)

// Watcher reloads a bootstrap file whenever it changes on disk and hands
// each successfully parsed catalogue to a callback. Intended for
// development loops; the poller supersedes it once a real fetch lands.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	wg   conc.WaitGroup
}

// Watch starts watching path. The containing directory is watched
// rather than the file itself so editors that replace the file (rename
// over it) keep triggering reloads. A file change that fails to parse
// is logged and skipped; onChange only ever sees valid catalogues.
func Watch(path string, onChange func(*catalogue.Catalogue)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch bootstrap file: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch bootstrap dir %s: %w", dir, err)
	}

	w := &Watcher{fs: fs, done: make(chan struct{})}
	target := filepath.Clean(path)
	w.wg.Go(func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fs.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cat, err := Load(target)
				if err != nil {
					log.Printf("[bootstrap] reload skipped: %v", err)
					continue
				}
				log.Printf("[bootstrap] reloaded %s: features=%d", target, len(cat.Features))
				onChange(cat)
			case err, ok := <-fs.Errors:
				if !ok {
					return
				}
				log.Printf("[bootstrap] watch error: %v", err)
			}
		}
	})
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
