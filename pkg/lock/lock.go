// Package lock provides advisory whole-handle locks on directories.
//
// A Lock opens the directory itself and holds flock(2) on that handle, using
// the directory purely as a mutex object. Every acquisition opens its own file
// description, so goroutines of one process contend with each other exactly
// like separate processes do. The lock is advisory: a process that touches
// the directory without taking it is not stopped.
package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Mode selects shared or exclusive locking.
type Mode int

const (
	// Shared admits any number of shared holders and no exclusive holder.
	Shared Mode = iota
	// Exclusive admits exactly one holder.
	Exclusive
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrUnsupported is returned on platforms without flock.
var ErrUnsupported = errors.New("advisory locking is not supported on this platform")

// exit terminates the process after a failed fallback release. Tests replace it.
var exit = os.Exit

// Lock is a held advisory lock. It is owned by the operation that acquired it
// and must not be shared between goroutines.
type Lock struct {
	mu   sync.Mutex
	path string
	mode Mode
	file *os.File
	held bool
}

// Acquire opens dir and blocks until the lock is granted in the given mode.
func Acquire(dir string, mode Mode) (*Lock, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s for locking: %w", dir, err)
	}
	if err := flock(f, mode); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquire %s lock on %s: %w", mode, dir, err)
	}
	return &Lock{path: dir, mode: mode, file: f, held: true}, nil
}

// AcquireShared is Acquire(dir, Shared).
func AcquireShared(dir string) (*Lock, error) {
	return Acquire(dir, Shared)
}

// AcquireExclusive is Acquire(dir, Exclusive).
func AcquireExclusive(dir string) (*Lock, error) {
	return Acquire(dir, Exclusive)
}

// Mode returns the mode the lock was acquired in.
func (l *Lock) Mode() Mode {
	return l.mode
}

// Held reports whether the lock has not been released yet.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Release unlocks and closes the directory handle. Releasing an already
// released lock is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	if err := funlock(l.file); err != nil {
		return fmt.Errorf("release %s lock on %s: %w", l.mode, l.path, err)
	}
	l.held = false
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close %s after unlock: %w", l.path, err)
	}
	return nil
}

// ReleaseOnExit is the scoped fallback for early returns and panics; defer it
// right after a successful Acquire. If the lock is still held it is released.
// A failure here would leave the directory locked for the life of the process,
// so it is fatal.
func (l *Lock) ReleaseOnExit() {
	if !l.Held() {
		return
	}
	if err := l.Release(); err != nil {
		slog.Error("failed to release directory lock", "path", l.path, "mode", l.mode.String(), "err", err)
		exit(1)
	}
}
