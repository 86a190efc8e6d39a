// Package lockmgr detects and force-removes stale writer locks guarding an
// index directory, and wraps gofrs/flock for the writer's own exclusive
// hold on that directory.
package lockmgr

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
)

// lockFileName is the fixed writer-lock file name within an index directory.
const lockFileName = ".writer.lock"

// Probe describes the observed state of a writer lock at an index directory.
type Probe struct {
	// Present is true if the lock file exists.
	Present bool
	// Age is how long ago the lock file was last modified. Zero if absent.
	Age time.Duration
	// OwnerPID is the process ID that last wrote the lock file, if known.
	// 0 means unknown (the lock file carries no PID, e.g. never written to).
	OwnerPID int
}

// Manager owns the writer lock for one index directory.
type Manager struct {
	indexPath string
	lockPath  string
	flock     *flock.Flock
	locked    bool
}

// New creates a lock Manager for the given index directory.
func New(indexPath string) *Manager {
	lockPath := filepath.Join(indexPath, lockFileName)
	return &Manager{
		indexPath: indexPath,
		lockPath:  lockPath,
		flock:     flock.New(lockPath),
	}
}

// Path returns the lock file path.
func (m *Manager) Path() string {
	return m.lockPath
}

// Probe reports whether a writer lock is currently present at path, its
// age, and its owner PID if the lock file's content records one.
func Probe(indexPath string) (*Probe, error) {
	lockPath := filepath.Join(indexPath, lockFileName)

	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Probe{Present: false}, nil
		}
		return nil, fmt.Errorf("stat lock file: %w", err)
	}

	p := &Probe{
		Present: true,
		Age:     time.Since(info.ModTime()),
	}

	if pid, err := readOwnerPID(lockPath); err == nil {
		p.OwnerPID = pid
	}

	return p, nil
}

// ForceRemove deletes the writer lock file unconditionally. It returns true
// if a lock file was actually removed. Per policy, callers must only invoke
// this after a writer-open attempt has already failed with a lock-obtain
// error — ForceRemove itself does not re-check ownership liveness, since a
// lock holder that crashed leaves no way to signal it.
func ForceRemove(indexPath string) (bool, error) {
	lockPath := filepath.Join(indexPath, lockFileName)

	if _, err := os.Stat(lockPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock file: %w", err)
	}

	if err := os.Remove(lockPath); err != nil {
		return false, fmt.Errorf("remove lock file: %w", err)
	}

	return true, nil
}

// TryAcquire attempts the non-blocking exclusive lock acquisition the index
// service performs when opening a writer. On failure it is the caller's
// responsibility to invoke ForceRemove and retry exactly once, per the
// write-lock recovery policy (spec'd retry-once semantics).
func (m *Manager) TryAcquire() (bool, error) {
	if err := os.MkdirAll(m.indexPath, 0o755); err != nil {
		return false, fmt.Errorf("create index directory: %w", err)
	}

	acquired, err := m.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire writer lock: %w", err)
	}
	if acquired {
		m.locked = true
		_ = writeOwnerPID(m.lockPath)
	}
	return acquired, nil
}

// AcquireWithRecovery performs the full stale-lock recovery policy: try
// to acquire; on failure, force-remove the lock and retry exactly once;
// if the retry also fails, return IndexUnavailable.
func (m *Manager) AcquireWithRecovery() error {
	acquired, err := m.TryAcquire()
	if err != nil {
		return cserrors.Wrap(cserrors.KindIndexUnavailable, err)
	}
	if acquired {
		return nil
	}

	if _, err := ForceRemove(m.indexPath); err != nil {
		return cserrors.IndexUnavailable(m.indexPath, err)
	}

	acquired, err = m.TryAcquire()
	if err != nil {
		return cserrors.IndexUnavailable(m.indexPath, err)
	}
	if !acquired {
		return cserrors.IndexUnavailable(m.indexPath, nil)
	}
	return nil
}

// Release releases the writer lock. Safe to call on an unlocked Manager.
func (m *Manager) Release() error {
	if !m.locked {
		return nil
	}
	if err := m.flock.Unlock(); err != nil {
		return fmt.Errorf("release writer lock: %w", err)
	}
	m.locked = false
	return nil
}

// IsLocked reports whether this Manager currently holds the lock.
func (m *Manager) IsLocked() bool {
	return m.locked
}

// writeOwnerPID records the current process's PID into the lock file so a
// later Probe can report an owner. flock already holds the OS-level lock;
// this just adds a readable hint for diagnostics.
func writeOwnerPID(lockPath string) error {
	return os.WriteFile(lockPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644)
}

// readOwnerPID reads a PID previously recorded by writeOwnerPID.
func readOwnerPID(lockPath string) (int, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, err
	}
	return pid, nil
}
