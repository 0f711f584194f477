package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Store.Read when no output exists for an id.
var ErrNotFound = errors.New("output not found")

// ErrStoreMissing is returned by Store.List when the store's directory does
// not exist, usually because the transcription stage has not run.
var ErrStoreMissing = errors.New("output directory not found")

// TextExt is the extension of completed engine outputs.
const TextExt = ".txt"

// Store exposes one engine's completed outputs.
type Store interface {
	// List returns the identifiers with completed output.
	List() (Set, error)
	// Read returns the text stored for id, or ErrNotFound.
	Read(id string) (string, error)
	// Label names the engine the store belongs to.
	Label() string
}

// DirStore is a Store over a directory of <id>.txt files.
type DirStore struct {
	dir   string
	label string
}

// NewDirStore creates a store reading from dir.
func NewDirStore(dir, label string) *DirStore {
	return &DirStore{dir: dir, label: label}
}

// Dir returns the backing directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Label names the engine the store belongs to.
func (s *DirStore) Label() string {
	return s.label
}

// List returns the stems of all *.txt files in the directory.
func (s *DirStore) List() (Set, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, s.dir)
		}
		return nil, fmt.Errorf("stat %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStoreMissing, s.dir)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	set := make(Set, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != TextExt {
			continue
		}
		set.Add(strings.TrimSuffix(name, TextExt))
	}
	return set, nil
}

// Read returns the UTF-8 text stored for id.
func (s *DirStore) Read(id string) (string, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, s.Path(id))
		}
		return "", fmt.Errorf("read %s: %w", s.Path(id), err)
	}
	return string(data), nil
}

// Path returns the file that holds id's output.
func (s *DirStore) Path(id string) string {
	return filepath.Join(s.dir, id+TextExt)
}

var _ Store = (*DirStore)(nil)
