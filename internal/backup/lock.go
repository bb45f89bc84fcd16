// Package backup implements the Backup/Lock/Audit core (C8): a
// whole-solution exclusive lock, a content-addressed backup session with
// an atomically-written manifest and reverse-order rollback, and a
// mutex-guarded append-only audit stream.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const lockFileName = ".sdkmigrate.lock"

// lockMeta is the small JSON sidecar recorded alongside the advisory lock,
// used to detect a stale (crashed) owner via process-liveness probe.
type lockMeta struct {
	PID       int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is the per-root-directory exclusive lock described in spec §4.8.
type Lock struct {
	flock *flock.Flock
	path  string
}

// AcquireLock takes the whole-solution lock under root, failing fast if a
// live owner holds it. A stale lock (owner process no longer running) is
// detected by PID liveness probe and forcibly taken with a warning
// returned via staleWarning.
func AcquireLock(root string, timeout time.Duration) (l *Lock, staleWarning string, err error) {
	path := filepath.Join(root, lockFileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, "", errors.Wrapf(err, "backup: acquire lock %s", path)
	}
	if locked {
		if err := writeLockMeta(path); err != nil {
			fl.Unlock()
			return nil, "", err
		}
		return &Lock{flock: fl, path: path}, "", nil
	}

	if stale, owner := isStaleLock(path); stale {
		warning := fmt.Sprintf("lock %s held by stale process %d; forcibly acquired", path, owner)
		os.Remove(path)
		fl2 := flock.New(path)
		locked, err := fl2.TryLock()
		if err != nil || !locked {
			return nil, "", errors.Errorf("backup: failed to force-acquire stale lock %s", path)
		}
		if err := writeLockMeta(path); err != nil {
			fl2.Unlock()
			return nil, "", err
		}
		return &Lock{flock: fl2, path: path}, warning, nil
	}

	return nil, "", errors.Errorf("backup: lock %s held by a live process, not acquired within timeout", path)
}

// Release unlocks and removes the lock's sidecar metadata.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrap(err, "backup: release lock")
	}
	os.Remove(l.path)
	return nil
}

func writeLockMeta(lockPath string) error {
	meta := lockMeta{PID: os.Getpid(), AcquiredAt: time.Now()}
	b, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "backup: marshal lock metadata")
	}
	if err := os.WriteFile(lockPath, b, 0o644); err != nil {
		return errors.Wrap(err, "backup: write lock metadata")
	}
	return nil
}

// isStaleLock reports whether the lock file names an owner PID that is no
// longer running.
func isStaleLock(lockPath string) (stale bool, owner int) {
	b, err := os.ReadFile(lockPath)
	if err != nil {
		return false, 0
	}
	var meta lockMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return false, 0
	}
	if meta.PID == 0 {
		return false, 0
	}
	return !processAlive(meta.PID), meta.PID
}

func processAlive(pid int) bool {
	return platformProcessAlive(pid)
}
