package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Supported backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	DataDir  string
	RedisURL string
	// Pool is required for the postgres backend.
	Pool *pgxpool.Pool
}

// Open creates the Store chosen by opts.Backend.
// Returns ErrNotConfigured when the backend's connection settings are missing.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFile(opts.DataDir)
	case BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisURL)
	case BackendPostgres:
		return NewPostgres(ctx, opts.Pool)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
