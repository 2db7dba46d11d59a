//go:build !windows

package saves

import (
	"os"

	"golang.org/x/sys/unix"
)

// flock wraps an advisory POSIX lock on an open file descriptor.
type flock struct {
	f *os.File
}

func lockFile(f *os.File) (*flock, error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return &flock{f: f}, nil
}

func (l *flock) Unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
