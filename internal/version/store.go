package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/otiai10/copy"
)

// Store is the directory holding one file per snapshot, named
// "<version>.<name>". It has no index: the set of versions is whatever
// the caller remembers, or what Latest finds by scanning.
type Store struct {
	dir  string
	name string
}

// ValidateName checks that name can be used both as the virtual file name
// and as a suffix of snapshot file names.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("target name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("target name %q is reserved", name)
	case strings.ContainsRune(name, '/'):
		return fmt.Errorf("target name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("target name contains a NUL byte")
	}
	return nil
}

// NewStore resolves dir, creates it if needed and verifies it can hold
// snapshot files.
func NewStore(dir, name string) (*Store, error) {
	logger.Debug("Creating snapshot store in %s for %q", dir, name)

	if err := ValidateName(name); err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store directory %s: %w", dir, err)
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", absDir, err)
	}

	probe, err := os.CreateTemp(absDir, ".versionfs-probe-*")
	if err != nil {
		return nil, fmt.Errorf("store directory %s is not writable: %w", absDir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	logger.Trace("Snapshot store ready: %s", absDir)
	return &Store{dir: absDir, name: name}, nil
}

// Dir returns the absolute store directory
func (s *Store) Dir() string { return s.dir }

// Name returns the target display name
func (s *Store) Name() string { return s.name }

// Path returns the snapshot path for version. It performs no I/O.
func (s *Store) Path(version uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(version, 10)+"."+s.name)
}

// Size returns the on-disk length of a snapshot
func (s *Store) Size(version uint64) (int64, error) {
	info, err := os.Stat(s.Path(version))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CreateEmpty creates (or truncates) the snapshot for version.
func (s *Store) CreateEmpty(version uint64) error {
	path := s.Path(version)
	logger.Debug("Creating empty snapshot %s", path)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	return nil
}

// CopyVersion makes the snapshot for to a byte-identical copy of from.
func (s *Store) CopyVersion(from, to uint64) error {
	src, dst := s.Path(from), s.Path(to)
	logger.Debug("Copying snapshot %s -> %s", src, dst)
	if err := copy.Copy(src, dst, copy.Options{Sync: true}); err != nil {
		return fmt.Errorf("failed to copy snapshot %s to %s: %w", src, dst, err)
	}
	return nil
}

// Remove deletes the snapshot for version. A missing file is not an error.
func (s *Store) Remove(version uint64) error {
	err := os.Remove(s.Path(version))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Latest scans the store for "<n>.<name>" regular files and returns the
// highest n, or 0 if there are none.
func (s *Store) Latest() (uint64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan store directory %s: %w", s.dir, err)
	}

	suffix := "." + s.name
	var latest uint64
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		prefix, ok := strings.CutSuffix(entry.Name(), suffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil || v == 0 {
			continue
		}
		logger.Trace("Found existing snapshot %s", entry.Name())
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}
