package render

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay collapses a burst of file events into one reload.
const reloadDelay = 500 * time.Millisecond

// Watch reloads the templates from dir whenever a file in it changes, until
// ctx is done. A failed reload is logged and the previous templates stay.
func (r *Renderer) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Watch: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("Watch: %w", err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					if err := r.LoadTemplates(dir); err != nil {
						log.Printf("Watch: %s", err)
						return
					}
					log.Printf("Reloaded templates from %s", dir)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Watch: %s", err)
			}
		}
	}()
	return nil
}
