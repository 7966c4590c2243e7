package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/securefile"
)

// FileStore keeps every key in one JSON object, rewritten atomically on
// each change.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

func OpenFile(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &FileStore{path: path, data: map[string]string{}}

	b, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("unmarshal storage file: %w", err)
	}
	if s.data == nil {
		s.data = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	key, err := validKey(key)
	if err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	key, err := validKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	key, err := validKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.persistLocked()
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) persistLocked() error {
	return securefile.WriteJSON(s.path, s.data, constants.FilePerm, constants.DirectoryPerm)
}
