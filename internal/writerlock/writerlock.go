// Package writerlock provides a cross-process exclusive lock so that only
// one writer process touches a given database file at a time. Readers
// (query) don't need it — sqlite's own WAL mode arbitrates concurrent
// readers and a single writer at the storage layer; this lock arbitrates
// at the process level, before two libsearchctl index/erase invocations
// ever reach storage.
package writerlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a named, cross-process exclusive lock backed by a sidecar file
// next to the database it protects.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New returns a Lock for the given database path's sidecar lock file
// (<dbPath>.lock).
func New(dbPath string) *Lock {
	lockPath := dbPath + ".lock"
	return &Lock{path: lockPath, flock: flock.New(lockPath)}
}

// Lock blocks until the exclusive lock is acquired.
func (l *Lock) Lock() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("writerlock: create lock directory: %w", err)
		}
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("writerlock: acquire: %w", err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking. ok is false if
// another process already holds it.
func (l *Lock) TryLock() (ok bool, err error) {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("writerlock: create lock directory: %w", err)
		}
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("writerlock: acquire: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an already-unlocked Lock.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("writerlock: release: %w", err)
	}
	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *Lock) Path() string {
	return l.path
}

// IsLocked reports whether this Lock instance currently holds the lock.
func (l *Lock) IsLocked() bool {
	return l.locked
}
