package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/kauth-dev/kauth/pkg/logger"
)

// FileStore keeps the context in a single owner-only JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed context store. An empty path selects
// the per-user default location under the XDG data directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = xdg.DataFile("kauth/context.json")
		if err != nil {
			return nil, fmt.Errorf("unable to resolve context path: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the on-disk location of the context file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted context. A missing, empty, or malformed file
// means no context.
func (s *FileStore) Load() (*AuthContext, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read context file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var ctx AuthContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		logger.Warnf("context file %s is malformed, treating as not logged in", s.path)
		return nil, nil
	}
	if ctx.AccessToken == "" {
		return nil, nil
	}
	return &ctx, nil
}

// Save atomically replaces the persisted context. The record holds live
// bearer tokens, so the file and its directory are owner-only.
func (s *FileStore) Save(ctx *AuthContext) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("unable to create context directory: %w", err)
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize context: %w", err)
	}

	// Write-to-temp-then-rename so a crash mid-write cannot corrupt the
	// only copy of the session.
	tmp, err := os.CreateTemp(dir, ".context-*.json")
	if err != nil {
		return fmt.Errorf("unable to create temp context file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to restrict context file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write context file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close context file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("unable to replace context file: %w", err)
	}
	return nil
}

// Clear removes the persisted context. Clearing an absent context is not an
// error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to remove context file: %w", err)
	}
	return nil
}
