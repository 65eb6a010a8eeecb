package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileStore persists slots in a single TOML document, the CLI's equivalent
// of browser local storage. Every call re-reads the file so separate
// processes observe each other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileDocument struct {
	Values map[string]string `toml:"values"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := doc.Values[key]
	return value, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Values[key] = value
	return s.write(doc)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return s.write(doc)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{Values: make(map[string]string)}
	if _, err := toml.DecodeFile(s.path, doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("decode state file failed: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

func (s *FileStore) write(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.toml")
	if err != nil {
		return fmt.Errorf("create state temp file failed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode state file failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state temp file failed: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod state file failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file failed: %w", err)
	}
	return nil
}
