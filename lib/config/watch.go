package config

import (
	"context"
	"log"
	"time"

	"github.com/jhenstridge/go-inotify"
)

// Watch parses filename again every time it is rewritten and hands the
// result to fn. Configs that fail to parse are logged and skipped.
func Watch(ctx context.Context, filename string, fn func(*Config)) error {
	watcher, err := inotify.NewWatcher()
	if err != nil {
		return err
	}
	_, err = watcher.Watch(filename)
	if err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer func(watcher *inotify.Watcher) {
			err := watcher.Close()
			if err != nil {
				log.Printf("could not close config watcher: %s", err)
			}
		}(watcher)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Event:
				if !ok {
					return
				}
				if ev.Mask&inotify.IN_CLOSE_WRITE == 0 {
					continue
				}
				time.Sleep(100 * time.Millisecond)
				cfg, err := Parse(filename)
				if err != nil {
					log.Printf("not reloading %s: %s", filename, err)
					continue
				}
				log.Printf("reloaded %s", filename)
				fn(cfg)
			}
		}
	}()
	return nil
}
