package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chen893/radar"
)

// BundleFile is the name of the JSON dump written next to the demand files.
const BundleFile = "radar-export.json"

// FileStore writes an export with atomic update semantics.
// Files are saved to a temporary directory, then moved atomically on Commit.
type FileStore struct {
	baseDir string
	name    string
}

// NewFileStore creates a new FileStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// SaveDemand writes one demand as a Markdown file.
func (s *FileStore) SaveDemand(ctx context.Context, d *radar.Demand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := DemandPath(d)
	if err != nil {
		return err
	}
	content, err := FormatDemand(d)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), "demands", relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// SaveBundle writes the JSON dump.
func (s *FileStore) SaveBundle(bundle *radar.ExportBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.tempDir(), BundleFile), data, 0644)
}

// Commit replaces the output directory with everything saved so far.
func (s *FileStore) Commit() error {
	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards everything saved so far.
func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
