package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/repository"
	"github.com/sitekit/sitekit/internal/store"
	"github.com/sitekit/sitekit/internal/subscriber"
)

// Backends are the storage handles opened from config.Storage.
// Store and Subscribers are nil when storage is not configured, in which
// case the API answers "Database not configured" instead of refusing to start.
type Backends struct {
	Store       store.Store
	Database    *repository.Repository
	Subscribers subscriber.Repository
}

// OpenStorage connects the configured backends. Missing connection settings
// are logged and leave the matching handle nil; unreachable servers are errors.
func OpenStorage(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.NeedsDatabase() {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		switch {
		case errors.Is(err, repository.ErrNoDatabaseURL):
			logger.Warn("DATABASE_URL not set, postgres storage disabled")
		case err != nil:
			return nil, fmt.Errorf("connect to database: %s", SanitizeError(err, cfg.DatabaseURL))
		default:
			b.Database = repo
			logger.Info("connected to database", slog.String("database_url", RedactURL(cfg.DatabaseURL)))
		}
	}

	opts := store.Options{
		Backend:  cfg.Backend,
		DataDir:  cfg.DataDir,
		RedisURL: cfg.RedisURL,
	}
	if b.Database != nil {
		opts.Pool = b.Database.Pool()
	}

	s, err := store.Open(ctx, opts)
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		logger.Warn("storage not configured", slog.String("backend", cfg.Backend))
	case err != nil:
		b.Close()
		return nil, fmt.Errorf("open %s storage: %s", cfg.Backend, SanitizeError(err, cfg.RedisURL, cfg.DatabaseURL))
	default:
		b.Store = s
		logger.Info("storage ready", slog.String("backend", cfg.Backend))
	}

	switch {
	case cfg.SubscriberBackend == "postgres" && b.Database != nil:
		subs := b.Database.Subscribers()
		if err := subs.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Subscribers = subs
	case cfg.SubscriberBackend == "postgres":
		logger.Warn("postgres subscriber backend selected without a database")
	case b.Store != nil:
		b.Subscribers = subscriber.NewListRepository(b.Store)
	}

	return b, nil
}

// Close releases every opened handle.
func (b *Backends) Close() {
	if b.Store != nil {
		_ = b.Store.Close()
	}
	if b.Database != nil {
		b.Database.Close()
	}
}
