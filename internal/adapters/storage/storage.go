// Package storage provides SpecStore implementations.
package storage

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Options selects and configures a store.
type Options struct {
	Driver      string
	Dir         string
	RedisAddr   string
	RedisPrefix string
}

// Open returns the store named by opts.Driver. An empty driver means memory.
func Open(opts Options) (domain.SpecStore, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(opts.Dir)
	case DriverRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// ValidateID rejects ids that are empty or unsafe as file names and keys.
func ValidateID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSpecID, id)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", domain.ErrSpecNotFound, id)
}

func sortByID(specs []*domain.StoredSpec) {
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].ID < specs[j].ID
	})
}

func clone(s *domain.StoredSpec) *domain.StoredSpec {
	c := *s
	return &c
}
