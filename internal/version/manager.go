// Package version owns the version counter of the target file and the
// policy that maps it onto snapshot files.
package version

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"versionfs/internal/logging"
	"versionfs/internal/passthrough"
)

var (
	logger = logging.GetLogger().WithPrefix("version")

	// ErrNotFound indicates a name, inode or version with no snapshot behind it
	ErrNotFound = errors.New("no such node")

	// ErrSnapshot indicates a snapshot could not be created or copied
	ErrSnapshot = errors.New("snapshot creation failed")
)

// Config describes the target and where its snapshots live.
type Config struct {
	// Dir is the snapshot store directory
	Dir string
	// Name is the target display name
	Name string
	// Owner is reported as uid/gid on every node
	Owner Owner
	// Resume continues numbering from the highest snapshot already in Dir
	// instead of restarting at version 1.
	Resume bool
}

// Manager holds the version counter. One lock serializes every change to
// the counter together with the snapshot file that backs the new version,
// so no reader can see a version whose snapshot is still being written.
type Manager struct {
	store   *Store
	owner   Owner
	resume  bool
	mu      sync.RWMutex
	version uint64
}

// NewManager prepares the snapshot store. The counter stays at 0 until
// Initialize is called.
func NewManager(cfg Config) (*Manager, error) {
	store, err := NewStore(cfg.Dir, cfg.Name)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:  store,
		owner:  cfg.Owner,
		resume: cfg.Resume,
	}, nil
}

// Initialize sets the counter to 1 and creates an empty first snapshot.
// With Resume set, the highest existing snapshot becomes current instead.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resume {
		latest, err := m.store.Latest()
		if err != nil {
			return err
		}
		if latest > 0 {
			m.version = latest
			logger.Info("Resuming %q at version %d", m.store.Name(), latest)
			return nil
		}
		logger.Debug("No existing snapshots for %q, starting fresh", m.store.Name())
	}

	if err := m.store.CreateEmpty(1); err != nil {
		return err
	}
	m.version = 1
	logger.Info("Initialized %q at version 1", m.store.Name())
	return nil
}

// Version returns the current version; 0 means uninitialized.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Name returns the target display name
func (m *Manager) Name() string { return m.store.Name() }

// Dir returns the snapshot store directory
func (m *Manager) Dir() string { return m.store.Dir() }

// Owner returns the uid/gid reported on nodes
func (m *Manager) Owner() Owner { return m.owner }

// ResolvePath returns the snapshot path of version.
func (m *Manager) ResolvePath(version uint64) string {
	return m.store.Path(version)
}

// ResolveAttributes returns the target's attributes as stored for
// version. It reports false for version 0 or a snapshot that cannot be
// stat'ed.
func (m *Manager) ResolveAttributes(version uint64) (Attributes, bool) {
	if version == 0 {
		return Attributes{}, false
	}
	size, err := m.store.Size(version)
	if err != nil {
		logger.Trace("No attributes for version %d: %v", version, err)
		return Attributes{}, false
	}
	return targetAttributes(m.owner, size), true
}

// RootAttributes returns the static attributes of the virtual directory
func (m *Manager) RootAttributes() Attributes {
	return RootAttributes(m.owner)
}

// CurrentAttributes returns the target's attributes for the current
// version.
func (m *Manager) CurrentAttributes() (Attributes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs, ok := m.ResolveAttributes(m.version)
	if !ok {
		return Attributes{}, ErrNotFound
	}
	return attrs, nil
}

// LookupTarget resolves name inside parent. When the current snapshot is
// missing, the previous version's attributes are returned instead.
func (m *Manager) LookupTarget(parent Kind, name string) (Attributes, error) {
	if parent != KindRoot || name != m.store.Name() {
		return Attributes{}, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if attrs, ok := m.ResolveAttributes(m.version); ok {
		return attrs, nil
	}
	if m.version > 1 {
		if attrs, ok := m.ResolveAttributes(m.version - 1); ok {
			logger.Warn("Snapshot %d missing, falling back to version %d", m.version, m.version-1)
			return attrs, nil
		}
	}
	return Attributes{}, ErrNotFound
}

// IsWriteIntent reports whether open flags ask for write access or
// creation. Such opens start a new version.
func IsWriteIntent(flags int) bool {
	return flags&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0
}

// Open starts a write or read session depending on flags.
func (m *Manager) Open(flags int) (*passthrough.Session, error) {
	if IsWriteIntent(flags) {
		return m.BeginWriteSession(flags)
	}
	return m.BeginReadSession(flags)
}

// BeginWriteSession moves the target to a new version and opens it.
// Unless flags request truncation, the new snapshot starts as a copy of
// the previous one. If the snapshot cannot be materialized the counter is
// left untouched and the error wraps ErrSnapshot.
func (m *Manager) BeginWriteSession(flags int) (*passthrough.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.version + 1
	var err error
	if next > 1 && flags&os.O_TRUNC == 0 {
		err = m.store.CopyVersion(next-1, next)
	} else {
		err = m.store.CreateEmpty(next)
	}
	if err != nil {
		logger.Error("Could not materialize version %d: %v", next, err)
		if rmErr := m.store.Remove(next); rmErr != nil {
			logger.Warn("Failed to remove partial snapshot %d: %v", next, rmErr)
		}
		return nil, fmt.Errorf("%w: version %d: %v", ErrSnapshot, next, err)
	}

	m.version = next
	logger.Debug("Version of %q is now %d", m.store.Name(), next)

	return passthrough.Open(m.store.Path(next), flags, next)
}

// BeginReadSession opens the current snapshot without changing version.
func (m *Manager) BeginReadSession(flags int) (*passthrough.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.version == 0 {
		return nil, ErrNotFound
	}
	return passthrough.Open(m.store.Path(m.version), flags, m.version)
}

// ReadCurrent reads from the newest snapshot by path, regardless of which
// session asked. Readers always see the latest version; writers keep
// writing to the version their session was opened on.
func (m *Manager) ReadCurrent(offset int64, size int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.version == 0 {
		return nil, ErrNotFound
	}
	return passthrough.ReadRange(m.store.Path(m.version), offset, size)
}
