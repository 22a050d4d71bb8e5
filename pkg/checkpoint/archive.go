package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundprediction/chronograph/pkg/types"
)

// ErrInvalidArchiveID is returned when a checkpoint id contains path
// traversal or invalid characters.
var ErrInvalidArchiveID = errors.New("invalid checkpoint id: contains path traversal or invalid characters")

// Archive persists checkpoint exports as JSON files, one file per
// checkpoint. Writes go through a temporary file and a rename so a crashed
// export never leaves a truncated archive behind.
type Archive struct {
	dir string
}

// NewArchive creates an archive rooted at dir. An empty dir falls back to
// os.TempDir()/chronograph-checkpoints.
func NewArchive(dir string) (*Archive, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "chronograph-checkpoints")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Dir returns the archive directory path.
func (a *Archive) Dir() string {
	return a.dir
}

// validateArchiveID checks that a checkpoint id is safe for use in file
// paths. Rejects path separators, traversal sequences, and null bytes.
func validateArchiveID(id string) error {
	if id == "" {
		return ErrInvalidArchiveID
	}
	if strings.Contains(id, "..") {
		return ErrInvalidArchiveID
	}
	if strings.ContainsAny(id, `/\`) {
		return ErrInvalidArchiveID
	}
	if strings.ContainsRune(id, '\x00') {
		return ErrInvalidArchiveID
	}
	return nil
}

// isPathWithinDirectory checks that the resolved path stays inside the
// expected directory, as a second guard against traversal.
func isPathWithinDirectory(path, directory string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(directory)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanDir) || cleanPath == filepath.Clean(directory)
}

// path returns the archive file path for a checkpoint id.
func (a *Archive) path(id string) (string, error) {
	if err := validateArchiveID(id); err != nil {
		return "", err
	}
	fullPath := filepath.Join(a.dir, fmt.Sprintf("checkpoint_%s.json", id))
	if !isPathWithinDirectory(fullPath, a.dir) {
		return "", ErrInvalidArchiveID
	}
	return fullPath, nil
}

// Save writes an export to the archive atomically.
func (a *Archive) Save(export *types.CheckpointExport) error {
	if export == nil || export.Checkpoint == nil {
		return errors.New("cannot archive nil export")
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	archivePath, err := a.path(export.Checkpoint.ID)
	if err != nil {
		return err
	}

	tmpPath := archivePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return fmt.Errorf("failed to rename archive file: %w", err)
	}
	return nil
}

// Load reads one export back. A missing id returns nil, not an error.
func (a *Archive) Load(id string) (*types.CheckpointExport, error) {
	archivePath, err := a.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}

	var export types.CheckpointExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archive file: %w", err)
	}
	return &export, nil
}

// Delete removes one archived export. Already deleted is a no-op.
func (a *Archive) Delete(id string) error {
	archivePath, err := a.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(archivePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete archive file: %w", err)
	}
	return nil
}

// List returns every parseable export in the archive. Unreadable files are
// skipped.
func (a *Archive) List() ([]*types.CheckpointExport, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var exports []*types.CheckpointExport
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.dir, entry.Name()))
		if err != nil {
			continue
		}
		var export types.CheckpointExport
		if err := json.Unmarshal(data, &export); err != nil {
			continue
		}
		exports = append(exports, &export)
	}
	return exports, nil
}

// CleanOld removes archived exports whose checkpoint timestamp is older than
// maxAge and returns how many were removed.
func (a *Archive) CleanOld(maxAge time.Duration) (int, error) {
	exports, err := a.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, export := range exports {
		if export.Checkpoint == nil {
			continue
		}
		if export.Checkpoint.Timestamp.Before(cutoff) {
			if err := a.Delete(export.Checkpoint.ID); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
