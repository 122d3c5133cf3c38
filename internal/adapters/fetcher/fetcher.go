// Package fetcher downloads remote specification documents.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/urlguard"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Accept is sent with every fetch.
const Accept = "application/json, application/yaml, text/yaml, text/plain, */*"

// maxConcurrentFetches bounds FetchAll.
const maxConcurrentFetches = 4

// Logger is the subset of the application logger the fetcher needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	Timeout              time.Duration
	MaxRedirects         int
	MaxSpecBytes         int64
	AllowPrivateNetworks bool

	// Cache is optional. When set, fresh entries are served without a request.
	Cache *Cache

	Logger Logger
}

// Fetcher implements domain.SpecFetcher.
type Fetcher struct {
	opts   Options
	policy urlguard.Policy
	client *http.Client
}

// New creates a Fetcher. Zero-valued limits fall back to 15s, 3 redirects and 5 MiB.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 3
	}
	if opts.MaxSpecBytes <= 0 {
		opts.MaxSpecBytes = 5 << 20
	}

	policy := urlguard.Policy{AllowPrivate: opts.AllowPrivateNetworks}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = policy.DialContext(&net.Dialer{Timeout: 10 * time.Second})

	return &Fetcher{
		opts:   opts,
		policy: policy,
		client: &http.Client{
			Transport:     otelhttp.NewTransport(transport),
			Timeout:       opts.Timeout,
			CheckRedirect: policy.CheckRedirect(opts.MaxRedirects),
		},
	}
}

// Fetch downloads the document at url and returns it as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	u, err := f.policy.Check(url)
	if err != nil {
		return "", err
	}

	if f.opts.Cache != nil {
		if data, ok := f.opts.Cache.Get(url); ok {
			f.infof("serving %s from cache", url)
			return string(data), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", Accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.RequestError{Op: "fetch", URL: url, Reason: "failed to fetch spec", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.RequestError{Op: "fetch", URL: url, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxSpecBytes+1))
	if err != nil {
		return "", &domain.RequestError{Op: "read", URL: url, Reason: "failed to read spec", Cause: err}
	}
	if int64(len(data)) > f.opts.MaxSpecBytes {
		return "", &domain.RequestError{Op: "read", URL: url, Reason: fmt.Sprintf("spec exceeds %d bytes", f.opts.MaxSpecBytes), Kind: domain.ErrResponseTooLarge}
	}
	if !utf8.Valid(data) {
		return "", &domain.RequestError{Op: "read", URL: url, Reason: "spec content is not valid UTF-8", Kind: domain.ErrInvalidSpec}
	}

	if f.opts.Cache != nil {
		if err := f.opts.Cache.Put(url, data); err != nil {
			f.errorf("failed to cache spec %s: %v", url, err)
		}
	}

	f.infof("fetched %s (%d bytes)", url, len(data))

	return string(data), nil
}

// Refresh drops the cached copies of urls so the next Fetch downloads them.
// It is a no-op without a cache.
func (f *Fetcher) Refresh(urls ...string) error {
	if f.opts.Cache == nil {
		return nil
	}

	var errs []error
	for _, url := range urls {
		if err := f.opts.Cache.Invalidate(url); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FetchAll fetches every url concurrently. Results keep the input order;
// the first failure cancels the remaining fetches.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]string, error) {
	results := make([]string, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, url := range urls {
		g.Go(func() error {
			content, err := f.Fetch(ctx, url)
			if err != nil {
				return err
			}
			results[i] = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (f *Fetcher) infof(format string, args ...any) {
	if f.opts.Logger != nil {
		f.opts.Logger.Infof(format, args...)
	}
}

func (f *Fetcher) errorf(format string, args ...any) {
	if f.opts.Logger != nil {
		f.opts.Logger.Errorf(format, args...)
	}
}
