// Package specs loads, stores and resolves specification sources.
package specs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/specparser"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// StorePrefix marks a source that names a stored specification.
const StorePrefix = "store:"

// Logger is the subset of the application logger the service needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Service ties the spec store and fetcher to the parser.
type Service struct {
	store   domain.SpecStore
	fetcher domain.SpecFetcher
	log     Logger
	now     func() time.Time
}

// NewService creates a Service. fetcher may be nil when remote sources are not used.
func NewService(store domain.SpecStore, fetcher domain.SpecFetcher, log Logger) *Service {
	return &Service{store: store, fetcher: fetcher, log: log, now: time.Now}
}

// Store returns the underlying spec store.
func (s *Service) Store() domain.SpecStore {
	return s.store
}

// Parse parses content and reports validation problems as warnings.
func (s *Service) Parse(ctx context.Context, content string) (*domain.OpenAPIDocument, error) {
	doc, err := specparser.Parse([]byte(content))
	if err != nil {
		return nil, err
	}
	if doc.OpenAPI == "" {
		return nil, fmt.Errorf("%w: missing openapi version", domain.ErrInvalidSpec)
	}

	if err := specparser.Validate(ctx, []byte(content)); err != nil && s.log != nil {
		s.log.Infof("Warning: %v", err)
	}

	return doc, nil
}

// Import parses content and stores it under id.
func (s *Service) Import(ctx context.Context, id, content, sourceURL string) (*domain.StoredSpec, *domain.OpenAPIDocument, error) {
	doc, err := s.Parse(ctx, content)
	if err != nil {
		return nil, nil, err
	}

	spec := &domain.StoredSpec{
		ID:        id,
		Title:     doc.Info.Title,
		Version:   doc.Info.Version,
		Content:   content,
		SourceURL: sourceURL,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, spec); err != nil {
		return nil, nil, err
	}

	if s.log != nil {
		s.log.Infof("Stored spec %s: %s (v%s)", id, spec.Title, spec.Version)
	}

	return spec, doc, nil
}

// Fetch downloads url. When id is set the document is also stored.
func (s *Service) Fetch(ctx context.Context, url, id string) (string, error) {
	if s.fetcher == nil {
		return "", fmt.Errorf("%w: remote sources are disabled", domain.ErrInvalidRequest)
	}

	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if id != "" {
		if _, _, err := s.Import(ctx, id, content, url); err != nil {
			return "", err
		}
	}

	return content, nil
}

// Load resolves a stored spec by id and parses it.
func (s *Service) Load(ctx context.Context, id string) (*domain.OpenAPIDocument, error) {
	spec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Parse(ctx, spec.Content)
}

// Open reads a source: "store:<id>", an http(s) URL, or a file path.
func (s *Service) Open(ctx context.Context, source string) (*domain.OpenAPIDocument, error) {
	switch {
	case strings.HasPrefix(source, StorePrefix):
		return s.Load(ctx, strings.TrimPrefix(source, StorePrefix))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		content, err := s.Fetch(ctx, source, "")
		if err != nil {
			return nil, err
		}
		return s.Parse(ctx, content)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return s.Parse(ctx, string(data))
	}
}
