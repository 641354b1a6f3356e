//go:build unix

package lock

import (
	"os"

	"golang.org/x/sys/unix"
)

func flock(f *os.File, mode Mode) error {
	how := unix.LOCK_SH
	if mode == Exclusive {
		how = unix.LOCK_EX
	}
	return retryEINTR(func() error { return unix.Flock(int(f.Fd()), how) })
}

func funlock(f *os.File) error {
	return retryEINTR(func() error { return unix.Flock(int(f.Fd()), unix.LOCK_UN) })
}

func retryEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}
