package config

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rua-build/rua/internal/rerr"
)

// InstanceLock is the single process-wide exclusive lock described in §5:
// acquired on first use by opening Paths.LockFile (<config>/.lock) and
// taking an exclusive, non-blocking file lock on it. A second instance finding it held
// must terminate with exit code 2 (rerr.LockContention).
type InstanceLock struct {
	file *os.File
}

// Lock acquires the process-wide instance lock. It returns a
// *rerr.Error of kind LockContention if another instance already holds it.
func (p *Paths) Lock() (*InstanceLock, error) {
	f, err := os.OpenFile(p.LockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, rerr.New(rerr.LockContention, "another rua instance is already running")
		}
		return nil, fmt.Errorf("locking %s: %w", p.LockFile, err)
	}

	return &InstanceLock{file: f}, nil
}

// Release drops the lock and closes the underlying file descriptor.
func (l *InstanceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	return l.file.Close()
}
