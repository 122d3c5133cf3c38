package specs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/storage"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const sample = `openapi: 3.0.3
info:
  title: Sample
  version: "2.0"
paths:
  /ping:
    get:
      responses:
        "200":
          description: ok
`

type fakeFetcher struct {
	content string
	err     error
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	return f.content, f.err
}

type recorder struct{ infos []string }

func (r *recorder) Infof(format string, _ ...any)  { r.infos = append(r.infos, format) }
func (r *recorder) Errorf(format string, _ ...any) { r.infos = append(r.infos, format) }

func newService(f domain.SpecFetcher) *Service {
	s := NewService(storage.NewMemoryStore(), f, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestImportAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newService(nil)

	spec, doc, err := s.Import(ctx, "sample", sample, "")
	require.NoError(t, err)
	assert.Equal(t, "Sample", spec.Title)
	assert.Equal(t, "2.0", spec.Version)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), spec.UpdatedAt)
	require.Len(t, doc.Paths, 1)

	loaded, err := s.Open(ctx, "store:sample")
	require.NoError(t, err)
	assert.Equal(t, "/ping", loaded.Paths[0].Path)

	_, err = s.Open(ctx, "store:missing")
	assert.ErrorIs(t, err, domain.ErrSpecNotFound)
}

func TestImport_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newService(nil)

	_, _, err := s.Import(ctx, "bad", "key: [unclosed", "")
	assert.ErrorIs(t, err, domain.ErrInvalidSpec)

	_, _, err = s.Import(ctx, "noversion", "info: {title: x}", "")
	assert.ErrorIs(t, err, domain.ErrInvalidSpec)

	_, _, err = s.Import(ctx, "../x", sample, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSpecID)
}

func TestParse_ValidationWarning(t *testing.T) {
	log := &recorder{}
	s := NewService(storage.NewMemoryStore(), nil, log)

	_, err := s.Parse(context.Background(), "openapi: 3.0.3\ninfo: {title: x}\npaths: {}\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Warning: %v"}, log.infos)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{content: sample}
	s := newService(f)

	content, err := s.Fetch(ctx, "https://specs.test/a.yaml", "remote")
	require.NoError(t, err)
	assert.Equal(t, sample, content)

	stored, err := s.Store().Get(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, "https://specs.test/a.yaml", stored.SourceURL)

	doc, err := s.Open(ctx, "https://specs.test/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Sample", doc.Info.Title)
	assert.Len(t, f.calls, 2)

	f.err = errors.New("boom")
	_, err = s.Fetch(ctx, "https://specs.test/b.yaml", "")
	assert.EqualError(t, err, "boom")
}

func TestFetch_Disabled(t *testing.T) {
	_, err := newService(nil).Fetch(context.Background(), "https://specs.test/a.yaml", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	doc, err := newService(nil).Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Sample", doc.Info.Title)

	_, err = newService(nil).Open(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
