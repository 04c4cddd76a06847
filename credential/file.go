package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the record in a single JSON document on disk.
//
// The document maps each storage key to a string value. Writes go to a
// temporary file in the same directory and are renamed into place, so a
// crash never leaves a half-written record.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the document at path. The file is
// created on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credential file path empty")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns an empty record when the document is missing or unreadable as
// JSON. Non-string values are ignored key by key.
func (s *FileStore) Load(context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, nil
	}

	values := make(map[string]string, len(Keys))
	for _, k := range Keys {
		raw, ok := doc[k]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		values[k] = v
	}
	return decodeValues(values), nil
}

func (s *FileStore) Save(_ context.Context, rec Record) error {
	values, err := encodeValues(rec)
	if err != nil {
		return err
	}

	doc := make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			doc[k] = v
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(data)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
