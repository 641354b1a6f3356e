package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// Db is a root directory holding one subdirectory per collection. It keeps no
// state beyond the root path and the options handed to its collections.
type Db struct {
	root string
	opts options
}

// Open creates root if it does not exist and returns a Db bound to it.
func Open(root string, opts ...Option) (*Db, error) {
	o := buildOptions(opts)
	if err := ensureDir(root, o.dirMode, true); err != nil {
		return nil, err
	}
	o.logger.Debug("opened database", "root", root, "codec", o.codec.Name())
	return &Db{root: root, opts: o}, nil
}

// Root returns the root directory.
func (db *Db) Root() string {
	return db.root
}

// Collection returns the schema-free collection called name, creating its
// directory on first reference.
func (db *Db) Collection(name string) (*Collection[domain.Document], error) {
	return OpenCollection[domain.Document](db, name)
}

// OpenCollection returns the collection called name with payload type T,
// creating its directory on first reference.
func OpenCollection[T any](db *Db, name string) (*Collection[T], error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(db.root, name)
	if err := ensureDir(dir, db.opts.dirMode, false); err != nil {
		return nil, err
	}
	return newCollection[T](name, dir, db.opts), nil
}

// ValidateCollectionName reports whether name can be used as a single
// directory under the root.
func ValidateCollectionName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", domain.ErrInvalidCollectionName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", domain.ErrInvalidCollectionName, name)
	}
	return nil
}

func ensureDir(dir string, mode os.FileMode, recursive bool) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s exists and is not a directory", domain.ErrIO, dir)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: stat %s: %w", domain.ErrIO, dir, err)
	}

	if recursive {
		err = os.MkdirAll(dir, mode)
	} else {
		err = os.Mkdir(dir, mode)
		// Another process may have created it since the stat.
		if errors.Is(err, fs.ErrExist) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrIO, dir, err)
	}
	return nil
}
