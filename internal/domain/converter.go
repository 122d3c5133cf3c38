package domain

import (
	"context"
	"io"
	"time"
)

// Converter defines the interface for request collection exporters.
type Converter interface {
	// Convert renders a request collection to the target format.
	Convert(col *Collection, output io.Writer) error

	// Format returns the output format name (e.g., "pdf", "docx").
	Format() string
}

// Executor dispatches a serialized request and returns the normalized response.
type Executor interface {
	Execute(ctx context.Context, req RequestDescriptor) (*ResponseModel, error)
}

// SpecFetcher downloads raw specification text.
type SpecFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StoredSpec is a specification kept by a SpecStore.
type StoredSpec struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   string    `json:"version,omitempty"`
	Content   string    `json:"content"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpecStore is a key-value store of specifications keyed by id.
// Get returns ErrSpecNotFound when id is unknown.
type SpecStore interface {
	Get(ctx context.Context, id string) (*StoredSpec, error)
	Put(ctx context.Context, spec *StoredSpec) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*StoredSpec, error)
}
