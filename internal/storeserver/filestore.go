package storeserver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
)

// FileStore reads and writes the mapping file. Writes are atomic: the new
// content goes to a temporary file in the same directory which is then
// renamed over the mapping file.
type FileStore struct {
	path string

	mu          sync.Mutex
	lastWritten []byte
}

// NewFileStore creates a store for the mapping file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the mapping file path
func (fs *FileStore) Path() string {
	return fs.path
}

// EnsureExists creates the mapping file containing {} if it is missing
func (fs *FileStore) EnsureExists() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat mapping file: %w", err)
	}

	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create mapping directory: %w", err)
		}
	}

	logging.Info("Creating empty mapping file", zap.String("path", fs.path))
	return fs.writeLocked([]byte("{}"))
}

// Read returns the raw file content
func (fs *FileStore) Read() ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return os.ReadFile(fs.path)
}

// Load parses the mapping file. A missing or unparsable file yields an empty
// document and no error, matching what a merge starts from.
func (fs *FileStore) Load() *mapping.Document {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.loadLocked()
}

func (fs *FileStore) loadLocked() *mapping.Document {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to read mapping file, starting from empty document",
				zap.String("path", fs.path),
				zap.Error(err),
			)
		}
		return emptyStoredDocument()
	}

	doc, err := mapping.Parse(data)
	if err != nil {
		logging.Warn("Mapping file is not a valid document, starting from empty document",
			zap.String("path", fs.path),
			zap.Error(err),
		)
		return emptyStoredDocument()
	}
	return doc
}

// emptyStoredDocument is the parsed form of "{}"
func emptyStoredDocument() *mapping.Document {
	doc, _ := mapping.Parse([]byte("{}"))
	return doc
}

// Merge folds patch into the stored document and writes the result. It
// returns the bytes written.
func (fs *FileStore) Merge(patch *mapping.Document) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc := fs.loadLocked()
	mapping.Merge(doc, patch)

	out, err := doc.MarshalIndent()
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged mapping: %w", err)
	}
	if err := fs.writeLocked(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Write replaces the stored document
func (fs *FileStore) Write(doc *mapping.Document) error {
	out, err := doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writeLocked(out)
}

// IsOwnWrite reports whether data is exactly what this store last wrote.
// The file watcher uses it to tell external edits from our own saves.
func (fs *FileStore) IsOwnWrite(data []byte) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastWritten != nil && bytes.Equal(fs.lastWritten, data)
}

func (fs *FileStore) writeLocked(data []byte) error {
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary mapping file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary mapping file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary mapping file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set mapping file permissions: %w", err)
	}

	// Recorded before the rename so the watcher never sees the new content
	// without it.
	fs.lastWritten = append([]byte(nil), data...)

	if err := os.Rename(tmpPath, fs.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace mapping file: %w", err)
	}

	logging.LogMappingEvent(fs.path, "write", len(data))
	return nil
}
