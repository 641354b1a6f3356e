package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// Watch reports document files being written or removed in the collection
// directory, including changes made by other processes. Entries whose names
// are not identifiers are ignored. A single insert may be reported more than
// once. The channel is closed when ctx is done.
//
// Watch takes no lock; events carry no ordering guarantee relative to other
// operations on the collection.
func (c *Collection[T]) Watch(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: create watcher: %w", domain.ErrIO, err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: watch %s: %w", domain.ErrIO, c.dir, err)
	}

	out := make(chan domain.ChangeEvent, 64)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				change, ok := c.changeFor(event)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.opts.logger.Warn("watch error", "collection", c.name, "err", err)
			}
		}
	}()
	return out, nil
}

func (c *Collection[T]) changeFor(event fsnotify.Event) (domain.ChangeEvent, bool) {
	id, err := domain.ParseIdentifier(filepath.Base(event.Name))
	if err != nil {
		return domain.ChangeEvent{}, false
	}
	change := domain.ChangeEvent{Collection: c.name, ID: id}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Kind = domain.ChangeRemoved
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		change.Kind = domain.ChangeWritten
	default:
		return domain.ChangeEvent{}, false
	}
	return change, true
}
