// Package filestore keeps uploaded document files on disk.
//
// Stored names are prefixed with the upload timestamp, sanitized so a
// hostile filename cannot escape the upload directory, and given a
// counter suffix when an identical name already exists on disk.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store manages files under a single directory.
type Store struct {
	dir string
}

// New creates the upload directory if needed and returns a Store for it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: mkdir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string { return s.dir }

// Save writes the stream to disk under a timestamped sanitized name and
// returns the stored name and byte count. Two uploads of the same name
// within one second get distinct stored names; O_EXCL detects the clash
// and a counter resolves it.
func (s *Store) Save(originalName string, r io.Reader) (string, int64, error) {
	ts := time.Now().Format("20060102150405")
	name := Sanitize(originalName)
	stored := ts + "_" + name

	var f *os.File
	for i := 1; ; i++ {
		var err error
		f, err = os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", 0, fmt.Errorf("filestore: create: %w", err)
		}
		stored = fmt.Sprintf("%s_%d_%s", ts, i, name)
	}
	path := filepath.Join(s.dir, stored)
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("filestore: write: %w", err)
	}
	return stored, n, nil
}

// Resolve maps a stored name to its full path. Names that would escape
// the upload directory are rejected.
func (s *Store) Resolve(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", fmt.Errorf("filestore: invalid stored name %q", storedName)
	}
	return filepath.Join(s.dir, storedName), nil
}

// Exists reports whether the stored file is present on disk.
func (s *Store) Exists(storedName string) bool {
	path, err := s.Resolve(storedName)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *Store) Delete(storedName string) error {
	path, err := s.Resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filestore: delete: %w", err)
	}
	return nil
}

// Sanitize strips path components and replaces characters outside
// [a-zA-Z0-9._-] with underscores.
func Sanitize(name string) string {
	name = filepath.Base(name)
	// Windows-style separators survive filepath.Base on other platforms.
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "upload"
	}
	return name
}
