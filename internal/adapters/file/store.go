package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
)

const ext = ".json"

// record is the on-disk representation of a call position.
type record struct {
	CallID    string    `json:"call_id"`
	Position  int       `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store implements ports.PositionStore using the local filesystem.
// Each call is stored in its own JSON file, so writes for different calls never
// touch the same file. Positions survive restarts.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".pathway/positions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".pathway", "positions")
	}
	return &Store{BasePath: basePath}
}

// path maps a call ID to a file name. IDs are path-escaped so separators cannot
// escape the base directory.
func (s *Store) path(callID string) string {
	return filepath.Join(s.BasePath, url.PathEscape(callID)+ext)
}

// Save persists the position atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, callID string, index int) error {
	if callID == "" {
		return fmt.Errorf("callID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure position directory: %w", err)
	}

	data, err := json.MarshalIndent(record{
		CallID:    callID,
		Position:  index,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, ".pos-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(callID)); err != nil {
		return fmt.Errorf("failed to rename temp file to position file: %w", err)
	}
	return nil
}

// Load retrieves the position from its JSON file.
func (s *Store) Load(ctx context.Context, callID string) (int, error) {
	if callID == "" {
		return 0, fmt.Errorf("callID cannot be empty")
	}

	data, err := os.ReadFile(s.path(callID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, domain.ErrCallNotFound
		}
		return 0, fmt.Errorf("failed to read position file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, fmt.Errorf("failed to unmarshal position file: %w", err)
	}
	return rec.Position, nil
}

// Delete removes the position file.
func (s *Store) Delete(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("callID cannot be empty")
	}

	err := os.Remove(s.path(callID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete position file: %w", err)
	}
	return nil
}

// List returns all stored call IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	var calls []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		calls = append(calls, id)
	}
	return calls, nil
}
