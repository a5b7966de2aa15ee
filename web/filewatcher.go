package web

// templateWatcher watches a templates directory for writes, signalling the
// server to drop its parsed template cache. It is only used in development
// mode where the templates are mounted from disk.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// watchFlushDuration is the time given for editors to finish multiple
// writes before an update is signalled.
const watchFlushDuration time.Duration = 25 * time.Millisecond

// templateWatcher watches a single directory for writes to files with the
// registered suffixes.
type templateWatcher struct {
	dir           string
	suffixes      []string
	watcher       *fsnotify.Watcher
	update        chan bool
	flushDuration time.Duration
}

// newTemplateWatcher registers a templateWatcher for dir, watching files
// with the provided suffixes. Suffixes without a leading dot have one
// prepended.
func newTemplateWatcher(dir string, suffixes ...string) (*templateWatcher, error) {

	if len(suffixes) < 1 {
		return nil, fmt.Errorf("at least one file suffix is needed")
	}

	dir = filepath.Clean(dir)
	check, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dir %q not found: %w", dir, err)
	}
	if !check.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	tw := templateWatcher{
		dir:           dir,
		update:        make(chan bool),
		flushDuration: watchFlushDuration,
	}
	for _, ix := range suffixes {
		if ix[0] != byte('.') {
			ix = "." + ix
		}
		tw.suffixes = append(tw.suffixes, strings.ToLower(ix))
	}

	tw.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := tw.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("fsnotify add error for dir %q: %w", dir, err)
	}
	return &tw, nil
}

// watch blocks, watching the directory for writes until the context is
// cancelled. Consumers receive on [templateWatcher.updates] when a matching
// file has been written.
func (tw *templateWatcher) watch(ctx context.Context) error {

	// eventChan buffers editor writes before flushing.
	eventChan := make(chan bool)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-tw.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-tw.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				if !e.Has(fsnotify.Write) {
					continue
				}
				basename := filepath.Base(e.Name)
				// ignore dot files
				if len(basename) > 0 && basename[0] == '.' {
					continue
				}
				for _, ix := range tw.suffixes {
					if strings.HasSuffix(strings.ToLower(basename), ix) {
						eventChan <- true
					}
				}
			}
		}
	})

	// Stack writes made in the same flushDuration, such as the double
	// writes made by editors like vim, into a single update.
	g.Go(func() error {
		flush := false
		timer := time.NewTicker(tw.flushDuration)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-eventChan:
				if !ok {
					return nil
				}
				flush = true
				timer.Reset(tw.flushDuration)
			case <-timer.C:
				if flush {
					tw.update <- true
					flush = false
				}
			}
		}
	})

	err := g.Wait()
	close(eventChan)
	close(tw.update)
	_ = tw.watcher.Close()
	return err
}

// updates returns a channel signalling a template refresh event.
func (tw *templateWatcher) updates() <-chan bool {
	return tw.update
}
