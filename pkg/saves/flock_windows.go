//go:build windows

package saves

import "os"

// flock is a no-op on Windows: os.OpenFile already denies a second
// exclusive writer by default on most Windows filesystems, and
// golang.org/x/sys/unix's Flock has no Windows implementation.
type flock struct{}

func lockFile(f *os.File) (*flock, error) {
	return &flock{}, nil
}

func (l *flock) Unlock() error {
	return nil
}
