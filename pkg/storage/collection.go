package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/lock"
)

// Predicate selects items in FindMany and UpdateMany. A nil Predicate selects
// every item.
type Predicate[T any] func(item domain.Item[T]) bool

// Mutator changes an item in place. Changes to item.ID are ignored: the
// document is always written back under its original identifier.
type Mutator[T any] func(item *domain.Item[T])

// Collection is a directory of documents, one file per document, named by its
// identifier. Every operation takes the directory lock for its whole
// duration: reads in shared mode, writes in exclusive mode.
type Collection[T any] struct {
	name string
	dir  string
	opts options
}

func newCollection[T any](name, dir string, opts options) *Collection[T] {
	return &Collection[T]{name: name, dir: dir, opts: opts}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Dir returns the collection directory.
func (c *Collection[T]) Dir() string {
	return c.dir
}

// GetOne returns the document stored under id.
func (c *Collection[T]) GetOne(id domain.Identifier) (domain.Item[T], error) {
	var item domain.Item[T]
	path, err := c.path(id)
	if err != nil {
		return item, err
	}

	l, err := c.acquire(lock.Shared)
	if err != nil {
		return item, err
	}
	defer l.ReleaseOnExit()

	data, err := c.read(path, id)
	if err != nil {
		return item, err
	}

	if err := c.release(l); err != nil {
		return item, err
	}
	return domain.NewItem(id, data), nil
}

// GetAll returns every document in the collection, in directory order.
func (c *Collection[T]) GetAll() ([]domain.Item[T], error) {
	return c.FindMany(nil)
}

// FindMany returns the documents for which pred holds, in directory order.
//
// An entry whose name is not an identifier aborts the whole call. An entry
// whose payload cannot be decoded is not a document and is skipped.
func (c *Collection[T]) FindMany(pred Predicate[T]) ([]domain.Item[T], error) {
	l, err := c.acquire(lock.Shared)
	if err != nil {
		return nil, err
	}
	defer l.ReleaseOnExit()

	entries, err := c.scan(false)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Item[T], 0, len(entries))
	for _, e := range entries {
		if pred == nil || pred(e.item) {
			result = append(result, e.item)
		}
	}

	if err := c.release(l); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertOne stores data under a freshly generated identifier and returns it.
func (c *Collection[T]) InsertOne(data T) (domain.Identifier, error) {
	raw, err := c.encode(c.dir, data)
	if err != nil {
		return domain.Identifier{}, err
	}

	l, err := c.acquire(lock.Exclusive)
	if err != nil {
		return domain.Identifier{}, err
	}
	defer l.ReleaseOnExit()

	id, err := c.insert(raw)
	if err != nil {
		return domain.Identifier{}, err
	}

	if err := c.release(l); err != nil {
		return domain.Identifier{}, err
	}
	c.opts.logger.Debug("inserted document", "collection", c.name, "id", id.String())
	return id, nil
}

// insert must be called with the exclusive lock held: the lock is what makes
// the existence check and the create a single step.
func (c *Collection[T]) insert(raw []byte) (domain.Identifier, error) {
	for attempt := 0; attempt < c.opts.maxInsertAttempts; attempt++ {
		id := c.opts.newID()
		path, err := c.path(id)
		if err != nil {
			return domain.Identifier{}, err
		}

		if _, err := os.Lstat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return domain.Identifier{}, fmt.Errorf("%w: stat %s: %w", domain.ErrIO, path, err)
		}

		// O_EXCL also catches a writer that ignores the lock.
		err = c.write(path, id, raw, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return domain.Identifier{}, err
		}
		return id, nil
	}

	return domain.Identifier{}, fmt.Errorf("%w: no free identifier in %s after %d attempts",
		domain.ErrIdentifierExhausted, c.name, c.opts.maxInsertAttempts)
}

// DeleteOne removes the document stored under id.
func (c *Collection[T]) DeleteOne(id domain.Identifier) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	l, err := c.acquire(lock.Exclusive)
	if err != nil {
		return err
	}
	defer l.ReleaseOnExit()

	if err := os.Remove(path); err != nil {
		return c.fileError("remove", path, id, err)
	}

	if err := c.release(l); err != nil {
		return err
	}
	c.opts.logger.Debug("deleted document", "collection", c.name, "id", id.String())
	return nil
}

// ReplaceOne overwrites the payload of an existing document. It fails with
// domain.ErrNotFound if no document is stored under item.ID; use UpsertOne to
// create documents with a caller-chosen identifier.
func (c *Collection[T]) ReplaceOne(item domain.Item[T]) error {
	return c.overwrite(item, os.O_WRONLY|os.O_TRUNC)
}

// UpsertOne writes item under item.ID, creating the document if needed.
func (c *Collection[T]) UpsertOne(item domain.Item[T]) error {
	return c.overwrite(item, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

func (c *Collection[T]) overwrite(item domain.Item[T], flag int) error {
	path, err := c.path(item.ID)
	if err != nil {
		return err
	}
	raw, err := c.encode(path, item.Data)
	if err != nil {
		return err
	}

	l, err := c.acquire(lock.Exclusive)
	if err != nil {
		return err
	}
	defer l.ReleaseOnExit()

	if err := c.write(path, item.ID, raw, flag); err != nil {
		return err
	}

	return c.release(l)
}

// UpdateByID reads the document stored under id, applies fn and writes the
// result back, all under one exclusive lock. A missing or undecodable
// document aborts before fn is called.
func (c *Collection[T]) UpdateByID(id domain.Identifier, fn Mutator[T]) (domain.Item[T], error) {
	var item domain.Item[T]
	if fn == nil {
		return item, errors.New("update: nil mutator")
	}
	path, err := c.path(id)
	if err != nil {
		return item, err
	}

	l, err := c.acquire(lock.Exclusive)
	if err != nil {
		return item, err
	}
	defer l.ReleaseOnExit()

	data, err := c.read(path, id)
	if err != nil {
		return item, err
	}

	item = domain.NewItem(id, data)
	fn(&item)
	item.ID = id

	raw, err := c.encode(path, item.Data)
	if err != nil {
		return item, err
	}
	if err := c.write(path, id, raw, os.O_WRONLY|os.O_TRUNC); err != nil {
		return item, err
	}

	// Return what GetOne will see, not the mutator's in-memory values.
	var stored T
	if err := c.opts.codec.Unmarshal(raw, &stored); err != nil {
		return item, fmt.Errorf("%w: decode %s with %s: %w", domain.ErrSerialization, path, c.opts.codec.Name(), err)
	}
	item.Data = stored

	if err := c.release(l); err != nil {
		return item, err
	}
	return item, nil
}

// UpdateMany applies fn to every document for which pred holds and returns
// the number of documents rewritten. The whole pass runs under one exclusive
// lock.
//
// Unlike FindMany, an undecodable entry aborts the call, and it does so before
// anything is written. A write failure part way through leaves the documents
// already rewritten in this pass as they are.
func (c *Collection[T]) UpdateMany(pred Predicate[T], fn Mutator[T]) (int, error) {
	if fn == nil {
		return 0, errors.New("update: nil mutator")
	}

	l, err := c.acquire(lock.Exclusive)
	if err != nil {
		return 0, err
	}
	defer l.ReleaseOnExit()

	entries, err := c.scan(true)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, e := range entries {
		if pred != nil && !pred(e.item) {
			continue
		}
		item := e.item
		fn(&item)

		raw, err := c.encode(e.path, item.Data)
		if err != nil {
			return updated, err
		}
		if err := c.write(e.path, e.item.ID, raw, os.O_WRONLY|os.O_TRUNC); err != nil {
			return updated, err
		}
		updated++
	}

	if err := c.release(l); err != nil {
		return updated, err
	}
	c.opts.logger.Debug("updated documents", "collection", c.name, "count", updated)
	return updated, nil
}

type scanEntry[T any] struct {
	item domain.Item[T]
	path string
}

// scan reads every document in the directory. The caller holds the lock.
// With strict set, a decode failure is returned instead of skipped.
func (c *Collection[T]) scan(strict bool) ([]scanEntry[T], error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrIO, c.dir, err)
	}

	entries := make([]scanEntry[T], 0, len(dirEntries))
	for _, de := range dirEntries {
		id, err := domain.ParseIdentifier(de.Name())
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.name, err)
		}
		path := filepath.Join(c.dir, de.Name())
		if !c.isDocument(path, de) {
			continue
		}

		data, err := c.read(path, id)
		if err != nil {
			if !strict && errors.Is(err, domain.ErrSerialization) {
				c.opts.logger.Debug("skipping undecodable entry", "collection", c.name, "id", id.String(), "err", err)
				continue
			}
			return nil, err
		}
		entries = append(entries, scanEntry[T]{item: domain.NewItem(id, data), path: path})
	}
	return entries, nil
}

// isDocument reports whether a directory entry with an identifier name holds a
// document: a regular file, or a symlink that resolves to one. Dangling links
// are skipped.
func (c *Collection[T]) isDocument(path string, de fs.DirEntry) bool {
	if de.Type().IsRegular() {
		return true
	}
	if de.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		c.opts.logger.Debug("skipping unresolvable link", "collection", c.name, "path", path, "err", err)
		return false
	}
	return info.Mode().IsRegular()
}

func (c *Collection[T]) path(id domain.Identifier) (string, error) {
	text, err := id.Text()
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, text), nil
}

func (c *Collection[T]) acquire(mode lock.Mode) (*lock.Lock, error) {
	l, err := lock.Acquire(c.dir, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return l, nil
}

func (c *Collection[T]) release(l *lock.Lock) error {
	if err := l.Release(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

func (c *Collection[T]) read(path string, id domain.Identifier) (T, error) {
	var data T
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, c.fileError("read", path, id, err)
	}
	if err := c.opts.codec.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: decode %s with %s: %w", domain.ErrSerialization, path, c.opts.codec.Name(), err)
	}
	return data, nil
}

func (c *Collection[T]) encode(path string, data T) ([]byte, error) {
	raw, err := c.opts.codec.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s with %s: %w", domain.ErrSerialization, path, c.opts.codec.Name(), err)
	}
	return raw, nil
}

// write opens path with flag and writes raw. The payload is encoded before the
// file is opened, so a truncate never happens for a payload that cannot be
// encoded.
func (c *Collection[T]) write(path string, id domain.Identifier, raw []byte, flag int) error {
	f, err := os.OpenFile(path, flag, c.opts.fileMode)
	if err != nil {
		return c.fileError("open", path, id, err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrIO, path, err)
	}
	return nil
}

func (c *Collection[T]) fileError(op, path string, id domain.Identifier, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s in collection %s: %w", domain.ErrNotFound, id, c.name, err)
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrIO, op, path, err)
}
