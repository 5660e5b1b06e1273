package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const staleSuffix = ".stale"

// Store reads and writes the session artifact file.
//
// Writes go to a temporary file in the target directory which is then renamed
// over the artifact, so a concurrent reader sees either the previous or the
// new artifact.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a store for the artifact at path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: filepath.Clean(path)}
}

// Path returns the artifact path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether an artifact file is present.
func (s *Store) Exists() (bool, error) {
	return afero.Exists(s.fs, s.path)
}

// Read loads and decodes the artifact.
func (s *Store) Read() (*State, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return Decode(data)
}

// Write replaces the artifact with state.
func (s *Store) Write(state *State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary artifact: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Chmod(tmpName, 0o600)
	}
	if err == nil {
		err = s.fs.Rename(tmpName, s.path)
	}
	if err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	return nil
}

// Remove deletes the artifact and its stale marker. Missing files are ignored.
func (s *Store) Remove() error {
	if err := removeIfExists(s.fs, s.path); err != nil {
		return err
	}
	return s.ClearStale()
}

// MarkStale records that the artifact no longer authenticates.
func (s *Store) MarkStale(reason string) error {
	line := time.Now().UTC().Format(time.RFC3339) + " " + reason + "\n"
	if err := afero.WriteFile(s.fs, s.path+staleSuffix, []byte(line), 0o644); err != nil {
		return fmt.Errorf("marking %s stale: %w", s.path, err)
	}
	return nil
}

// IsStale reports whether a stale marker exists.
func (s *Store) IsStale() bool {
	ok, _ := afero.Exists(s.fs, s.path+staleSuffix)
	return ok
}

// ClearStale removes the stale marker.
func (s *Store) ClearStale() error {
	return removeIfExists(s.fs, s.path+staleSuffix)
}

func removeIfExists(fs afero.Fs, name string) error {
	err := fs.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}
