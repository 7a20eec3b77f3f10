package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json", "zone_Z1.json")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte(`{"a":1}`))
		return err
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteFileAtomicKeepsOldContentOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encoder exploded")
	})
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	if string(content) != "old" {
		t.Errorf("expected original content to survive, got %q", content)
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImageStore(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(func(cellID, photoID string) string {
		return filepath.Join(root, cellID, "paris_"+cellID+"_"+photoID+".jpg")
	})

	assert.NoFileExists(t, store.Path("Z1", "p1"))
	assert.Equal(t, 0, store.SavedCount())

	testData := []byte("jpeg bytes")
	path, err := store.Save(bytes.NewReader(testData), "Z1", "p1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Z1", "paris_Z1_p1.jpg"), path)
	assert.Equal(t, path, store.Path("Z1", "p1"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	assert.Equal(t, 1, store.SavedCount())
}
