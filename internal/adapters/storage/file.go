package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const fileExt = ".json"

// FileStore keeps one JSON file per specification in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file storage requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func (s *FileStore) Get(_ context.Context, id string) (*domain.StoredSpec, error) {
	if err := ValidateID(id); err != nil {
		return nil, notFound(id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(s.path(id), id)
}

func (s *FileStore) read(path, id string) (*domain.StoredSpec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", id, err)
	}

	var spec domain.StoredSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec %s: %w", id, err)
	}
	return &spec, nil
}

// Put writes through a temporary file so readers never see a partial document.
func (s *FileStore) Put(_ context.Context, spec *domain.StoredSpec) error {
	if err := ValidateID(spec.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode spec %s: %w", spec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, spec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write spec %s: %w", spec.ID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write spec %s: %w", spec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write spec %s: %w", spec.ID, err)
	}

	return os.Rename(tmp.Name(), s.path(spec.ID))
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return notFound(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(id)
	}
	return err
}

func (s *FileStore) List(_ context.Context) ([]*domain.StoredSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list specs: %w", err)
	}

	var out []*domain.StoredSpec
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		spec, err := s.read(filepath.Join(s.dir, name), id)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	sortByID(out)

	return out, nil
}
