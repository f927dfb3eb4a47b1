// Package blob defines the key/value blob contract the sync engine persists
// through, together with the local, S3 and Redis backends. The Postgres
// backend lives in the repository package next to the connection pool.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotExist is returned by Get when no blob is stored under the key.
var ErrNotExist = errors.New("blob: not found")

// Store reads and writes whole blobs. Put must replace any previous value
// atomically from the reader's point of view.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// HealthChecker is implemented by backends that can verify connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// WithPrefix namespaces every key of st under prefix.
func WithPrefix(st Store, prefix string) Store {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return st
	}
	return &prefixed{Store: st, prefix: prefix}
}

type prefixed struct {
	Store
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, path.Join(p.prefix, key))
}

func (p *prefixed) Put(ctx context.Context, key string, data []byte) error {
	return p.Store.Put(ctx, path.Join(p.prefix, key), data)
}

func (p *prefixed) HealthCheck(ctx context.Context) error {
	if hc, ok := p.Store.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
