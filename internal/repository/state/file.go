package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
)

// Repository defines persistence operations for the coordinator state.
type Repository interface {
	Load(ctx context.Context) (*dispatch.Snapshot, error)
	Save(ctx context.Context, snapshot *dispatch.Snapshot) error
}

// ErrNotFound is returned when no snapshot has been persisted yet.
var ErrNotFound = errors.New("state not found")

// FileRepository persists the coordinator snapshot to a JSON file on disk.
// Saves go through a temp file and rename, so a crash mid-write leaves the
// previous snapshot intact.
type FileRepository struct {
	// path is the filesystem location of the JSON snapshot file.
	path string
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*dispatch.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var snapshot dispatch.Snapshot
	if err = json.Unmarshal(contents, &snapshot); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return &snapshot, nil
}

// Save writes the snapshot to disk atomically.
func (r *FileRepository) Save(_ context.Context, snapshot *dispatch.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required: %w", dispatch.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
