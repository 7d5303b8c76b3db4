// Package storage provides the client-side key-value stores that hold
// credentials such as bearer tokens between runs.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store is a persistent key-value store scoped to the calling environment.
type Store interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Close() error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// ItemTTL expires items after the given duration. Zero keeps items forever.
	ItemTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	TypeMemory = "memory"
	TypeBBolt  = "bbolt"
	TypeNone   = "none"

	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeMemory:
		return NewMemoryStore(opts), nil
	case TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ItemTTL < 0 {
		opts.ItemTTL = 0
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// expiryFor returns the absolute expiry for an item written at now, or the
// zero time when items do not expire.
func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(expiry, now time.Time) bool {
	return !expiry.IsZero() && !expiry.After(now)
}

type noopStore struct{}

func (noopStore) GetItem(string) (string, bool, error) { return "", false, nil }
func (noopStore) SetItem(string, string) error         { return nil }
func (noopStore) RemoveItem(string) error              { return nil }
func (noopStore) Close() error                         { return nil }
