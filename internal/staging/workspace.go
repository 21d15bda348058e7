package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrBusy reports that another run holds the scratch directory for an item.
var ErrBusy = errors.New("scratch directory in use")

// Workspace is a scratch directory reserved for one item's extraction.
type Workspace struct {
	Dir  string
	lock *flock.Flock
}

// Allocate reserves <scratchDir>/<name> for the caller. Any directory left by a
// previous failed attempt is cleared first. A non-blocking advisory lock on
// <scratchDir>/.<name>.lock keeps two overlapping runs from clearing each
// other's work; if the lock is held, ErrBusy is returned.
func Allocate(scratchDir, name string) (*Workspace, error) {
	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		return nil, errors.New("scratch directory not configured")
	}
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return nil, fmt.Errorf("invalid scratch name %q", name)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	lock, err := acquire(lockPath(scratchDir, name))
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, fmt.Errorf("%w: %s", ErrBusy, name)
		}
		return nil, fmt.Errorf("lock scratch %s: %w", name, err)
	}

	dir := filepath.Join(scratchDir, name)
	if err := os.RemoveAll(dir); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("clear stale scratch %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create scratch %s: %w", dir, err)
	}
	return &Workspace{Dir: dir, lock: lock}, nil
}

// Release removes the scratch directory and drops the lock. The lock file
// stays; CleanStale removes it once no run holds it.
func (w *Workspace) Release() error {
	if w == nil {
		return nil
	}
	err := os.RemoveAll(w.Dir)
	if w.lock != nil {
		if unlockErr := w.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

const lockAttempts = 3

// acquire takes the lock at path without blocking. CleanStale unlinks idle
// lock files while holding them, so a lock only counts if path still names
// the file that was locked; otherwise the attempt is repeated on the new file.
func acquire(path string) (*flock.Flock, error) {
	for range lockAttempts {
		before, err := ensureFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		lock := flock.New(path)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrBusy
		}
		if after, err := os.Stat(path); err == nil && os.SameFile(before, after) {
			return lock, nil
		}
		_ = lock.Unlock()
	}
	return nil, fmt.Errorf("lock file %s replaced during every attempt", path)
}

// ensureFile creates path if needed and returns its identity.
func ensureFile(path string) (os.FileInfo, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return os.Stat(path)
}

// tryHold takes the lock for name if no run holds it. The caller must unlock.
func tryHold(scratchDir, name string) (*flock.Flock, bool) {
	lock, err := acquire(lockPath(scratchDir, name))
	if err != nil {
		return nil, false
	}
	return lock, true
}

const lockSuffix = ".lock"

func lockPath(scratchDir, name string) string {
	return filepath.Join(scratchDir, "."+name+lockSuffix)
}

// inUse reports whether a live run currently holds the lock for name.
func inUse(scratchDir, name string) bool {
	path := lockPath(scratchDir, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return true
	}
	if !locked {
		return true
	}
	_ = lock.Unlock()
	return false
}
