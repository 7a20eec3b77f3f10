// Package aggregate maintains the per-cell JSON documents the fetcher
// writes photo entries into.
//
// Each document is a JSON object keyed by photo id. Updates are
// read-modify-write: existing entries are kept, the updated entry replaces
// any previous value under the same id, and the result is written to a
// temporary file and renamed over the original.
package aggregate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/storage"
)

// Document is one cell's aggregate, photo id to entry.
type Document map[string]json.RawMessage

// IDs returns the photo ids in the document in sorted order.
func (d Document) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store serialises writes to aggregate documents.
type Store struct {
	mu     sync.Mutex
	logger logger.Logger
}

// NewStore creates an aggregate store
func NewStore(log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{logger: log}
}

// Load reads the document at path. A missing file is an empty document.
func (s *Store) Load(path string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load(path)
}

func load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil
		}
		return nil, ferrors.Storage("aggregate.Load", err)
	}

	doc := Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.Storage("aggregate.Load", fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err))
	}
	return doc, nil
}

// Put merges entry into the document at path under photoID.
func (s *Store) Put(path, photoID string, entry interface{}) error {
	const op = "aggregate.Put"

	raw, err := encodeEntry(entry)
	if err != nil {
		return ferrors.Storage(op, fmt.Errorf("failed to encode entry %s: %w", photoID, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := load(path)
	if err != nil {
		return err
	}
	_, replaced := doc[photoID]
	doc[photoID] = raw

	err = storage.WriteFileAtomic(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(doc)
	})
	if err != nil {
		return ferrors.Storage(op, err)
	}

	s.logger.DebugWithFields("Aggregate updated", map[string]interface{}{
		"file":     filepath.Base(path),
		"photo_id": photoID,
		"entries":  len(doc),
		"replaced": replaced,
	})
	return nil
}

func encodeEntry(entry interface{}) (json.RawMessage, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entry); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

// Walk calls fn for every *.json document in dir, in file name order.
// A missing directory yields no calls.
func (s *Store) Walk(dir string, fn func(path string, doc Document) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return ferrors.Storage("aggregate.Walk", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := s.Load(path)
		if err != nil {
			return err
		}
		if err := fn(path, doc); err != nil {
			return err
		}
	}
	return nil
}
