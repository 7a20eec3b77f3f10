package downloader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/storage"
)

// MockStorage records what it was asked to save
type MockStorage struct {
	saved     map[string][]byte
	saveError error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{saved: make(map[string][]byte)}
}

func (m *MockStorage) Save(r io.Reader, cellID, photoID string) (string, error) {
	if m.saveError != nil {
		io.Copy(io.Discard, r)
		return "", m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[cellID+"/"+photoID] = data
	return cellID + "/" + photoID + ".jpg", nil
}

func TestDownloadSavesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/65535/p1_s1_b.jpg", r.URL.Path)
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	store := NewMockStorage()
	d := New(0, store, logger.NewTestLogger())

	res := d.Download(context.Background(), Job{URL: srv.URL + "/65535/p1_s1_b.jpg", CellID: "Z1", PhotoID: "p1"})
	require.NoError(t, res.Error)
	assert.True(t, res.Success)
	assert.Equal(t, int64(len("jpeg bytes")), res.Size)
	assert.Equal(t, "Z1/p1.jpg", res.Path)
	assert.Equal(t, []byte("jpeg bytes"), store.saved["Z1/p1"])
}

func TestDownloadNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := NewMockStorage()
	log := logger.NewTestLogger()
	d := New(0, store, log)

	res := d.Download(context.Background(), Job{URL: srv.URL + "/x.jpg", CellID: "Z1", PhotoID: "p1"})
	assert.False(t, res.Success)
	assert.Equal(t, ferrors.ErrorTypeTransport, ferrors.TypeOf(res.Error))
	assert.Empty(t, store.saved)
	assert.True(t, log.HasMessage("Image not downloaded"))
}

func TestDownloadSaveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	store := NewMockStorage()
	store.saveError = errors.New("disk full")
	d := New(0, store, nil)

	res := d.Download(context.Background(), Job{URL: srv.URL, CellID: "Z1", PhotoID: "p1"})
	assert.False(t, res.Success)
	assert.Equal(t, ferrors.ErrorTypeStorage, ferrors.TypeOf(res.Error))
}

func TestDownloadCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(0, NewMockStorage(), nil).Download(ctx, Job{URL: srv.URL, CellID: "Z1", PhotoID: "p1"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Error, context.Canceled)
}

func TestDownloadIntoImageStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pixels"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	store := storage.NewImageStore(func(cellID, photoID string) string {
		return filepath.Join(dir, "img", cellID, "Z_"+cellID+"_"+photoID+".jpg")
	})

	res := New(0, store, nil).Download(context.Background(), Job{URL: srv.URL, CellID: "c1", PhotoID: "p9"})
	require.NoError(t, res.Error)

	data, err := os.ReadFile(filepath.Join(dir, "img", "c1", "Z_c1_p9.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, 1, store.SavedCount())
}
