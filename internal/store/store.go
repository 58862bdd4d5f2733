// Package store reads and writes project records kept under the vessel root,
// one directory per project holding a config.toml.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/vesselerr"
)

var (
	// ErrProjectAlreadyExists indicates the project directory is already present
	ErrProjectAlreadyExists = errors.New("project already exists")
	// ErrInvalidName indicates a project name that cannot be used as a directory
	ErrInvalidName = errors.New("invalid project name")
)

// Store gives access to the project tree rooted at Root.
type Store struct {
	root string
}

// New returns a Store over root. The directory is not created.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Dir returns the storage directory of the named project.
func (s *Store) Dir(name string) string { return paths.ProjectDir(s.root, name) }

// Exists reports whether the named project has a directory under the root.
func (s *Store) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	fi, err := os.Stat(s.Dir(name))
	return err == nil && fi.IsDir()
}

// Raw returns the unparsed contents of a project's record. A name that
// cannot be a project directory is ConfigUnreadable.
func (s *Store) Raw(name string) ([]byte, error) {
	path := paths.ProjectConfig(s.root, name)
	if err := validateName(name); err != nil {
		return nil, vesselerr.Unreadable(name, path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vesselerr.NotFound(name, path)
		}
		return nil, vesselerr.Unreadable(name, path, err)
	}
	return data, nil
}

// Load reads and decodes the named project's record. A missing record is an
// IOError of kind ProjectNotFound; an unreadable or malformed one is
// ConfigUnreadable.
func (s *Store) Load(name string) (*project.Record, error) {
	data, err := s.Raw(name)
	if err != nil {
		return nil, err
	}

	var rec project.Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		path := paths.ProjectConfig(s.root, name)
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, vesselerr.Unreadable(name, path, fmt.Errorf("line %d column %d: %w", row, col, err))
		}
		return nil, vesselerr.Unreadable(name, path, err)
	}
	rec.Dir = s.Dir(name)
	return &rec, nil
}

// Create makes the project directory and writes its first record. It fails
// with ErrProjectAlreadyExists when the directory is already there.
func (s *Store) Create(rec *project.Record) error {
	if err := validateName(rec.Name); err != nil {
		return err
	}
	dir := s.Dir(rec.Name)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create root %s: %w", s.root, err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrProjectAlreadyExists, dir)
		}
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := s.Save(rec); err != nil {
		// Roll back the directory so a retry is possible
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

// Save encodes rec and atomically replaces the project's record.
func (s *Store) Save(rec *project.Record) error {
	if err := validateName(rec.Name); err != nil {
		return err
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", rec.Name, err)
	}
	if err := WriteFileAtomic(paths.ProjectConfig(s.root, rec.Name), data, 0o644); err != nil {
		return fmt.Errorf("persist failed: %w", err)
	}
	return nil
}

// List returns the names of every project directory holding a record,
// sorted by name.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), paths.ConfigFile)); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
