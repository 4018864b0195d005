package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sitekit/sitekit/internal/config"
)

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"no credentials", "redis://localhost:6379/0", "redis://localhost:6379/0"},
		{"user and password", "postgres://site:secret@db:5432/site", "postgres://site@db:5432/site"},
		{"password only", "redis://:secret@cache:6379", "redis://redacted@cache:6379"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RedactURL(tt.raw); got != tt.want {
				t.Errorf("RedactURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://site:secret@db:5432/site"
	err := errors.New("dial " + dsn + " failed: password=hunter2 rejected")

	got := SanitizeError(err, dsn)
	want := "dial postgres://site@db:5432/site failed: password=redacted rejected"
	if got != want {
		t.Errorf("SanitizeError() = %q, want %q", got, want)
	}
	if SanitizeError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOpenStorage(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		b, err := OpenStorage(ctx, config.Storage{
			Backend:           "file",
			DataDir:           t.TempDir(),
			SubscriberBackend: "store",
		}, logger)
		if err != nil {
			t.Fatalf("OpenStorage failed: %v", err)
		}
		defer b.Close()

		if b.Store == nil || b.Subscribers == nil {
			t.Fatalf("expected store and subscribers, got %+v", b)
		}
		if b.Database != nil {
			t.Error("file backend should not open a database")
		}
		if _, _, err := b.Subscribers.Add(ctx, "a@example.com"); err != nil {
			t.Errorf("Add failed: %v", err)
		}
	})

	t.Run("redis without url", func(t *testing.T) {
		t.Parallel()
		b, err := OpenStorage(ctx, config.Storage{Backend: "redis", SubscriberBackend: "store"}, logger)
		if err != nil {
			t.Fatalf("OpenStorage failed: %v", err)
		}
		if b.Store != nil || b.Subscribers != nil {
			t.Errorf("expected nil handles, got %+v", b)
		}
	})

	t.Run("postgres without url", func(t *testing.T) {
		t.Parallel()
		b, err := OpenStorage(ctx, config.Storage{Backend: "postgres", SubscriberBackend: "postgres"}, logger)
		if err != nil {
			t.Fatalf("OpenStorage failed: %v", err)
		}
		if b.Store != nil || b.Database != nil || b.Subscribers != nil {
			t.Errorf("expected nil handles, got %+v", b)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		if _, err := OpenStorage(ctx, config.Storage{Backend: "mongo"}, logger); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}
