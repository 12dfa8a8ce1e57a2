package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink replaces a file only when the new content differs, so build tools
// watching its mtime do not rebuild on identical output.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Put writes data through a temporary file and rename.
func (s *FileSink) Put(data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, err := os.Stat(s.path)
	switch {
	case err == nil && stat.IsDir():
		return false, fmt.Errorf("output path is a directory")
	case err == nil:
		existing, err := os.ReadFile(s.path)
		if err != nil {
			return false, fmt.Errorf("read output: %w", err)
		}
		if bytes.Equal(existing, data) {
			return false, nil
		}
	case !os.IsNotExist(err):
		return false, fmt.Errorf("stat output: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create output dir: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return false, fmt.Errorf("write output tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return false, fmt.Errorf("rename output: %w", err)
	}

	return true, nil
}
