package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Atomic Export
// The store uses a temp directory so a failed export never leaves a
// half-written directory behind.

func testDemand(id, title string) *radar.Demand {
	return &radar.Demand{ID: id, ExtractionID: "ex", Solution: radar.Solution{Title: title}}
}

func TestFileStore_SaveWritesToTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store targeting a directory
	base := t.TempDir()
	store := fs.NewFileStore(base, "export")

	// When I save a demand
	err := store.SaveDemand(context.Background(), testDemand("abcdef12", "Idea"))

	// Then no error occurs
	require.NoError(t, err)

	// And the file exists in the temp directory (not final)
	_, err = os.Stat(filepath.Join(base, "export.tmp", "demands", "idea-abcdef12.md"))
	require.NoError(t, err, "file should exist in temp directory")

	// And final directory does not exist yet
	_, err = os.Stat(filepath.Join(base, "export"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist until commit")
}

func TestFileStore_CommitReplacesFinalDirectory(t *testing.T) {
	t.Parallel()

	// Given an earlier export with a stale file
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "export"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "export", "stale.md"), []byte("old"), 0644))

	// And a store with a saved demand and bundle
	store := fs.NewFileStore(base, "export")
	require.NoError(t, store.SaveDemand(context.Background(), testDemand("abcdef12", "Idea")))
	require.NoError(t, store.SaveBundle(&radar.ExportBundle{Version: radar.ExportVersion}))

	// When I commit
	err := store.Commit()

	// Then the final directory holds only the new export
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "export", "demands", "idea-abcdef12.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "export", fs.BundleFile))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "export", "stale.md"))
	assert.True(t, os.IsNotExist(err), "stale files should be gone after commit")

	// And temp directory is gone
	_, err = os.Stat(filepath.Join(base, "export.tmp"))
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after commit")
}

func TestFileStore_AbortCleansUpTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store with a saved demand
	base := t.TempDir()
	store := fs.NewFileStore(base, "export")
	require.NoError(t, store.SaveDemand(context.Background(), testDemand("abcdef12", "Idea")))

	// When I abort
	err := store.Abort()

	// Then temp and final directories are absent
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "export.tmp"))
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after abort")
	_, err = os.Stat(filepath.Join(base, "export"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist after abort")
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	// Given a store
	store := fs.NewFileStore(t.TempDir(), "export")

	// When I try to save a demand whose ID escapes the directory
	err := store.SaveDemand(context.Background(), testDemand("../../x", "Malicious"))

	// Then an error is returned
	require.Error(t, err, "path traversal should be rejected")
	assert.Contains(t, radar.ErrorMessage(err), "path traversal")
}
