package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// runStoreContract exercises the Store behavior every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := SetJSON(ctx, s, "subscribers:list", []string{"a@example.com"}, 0); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}

		var got []string
		if err := GetJSON(ctx, s, "subscribers:list", &got); err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
		if len(got) != 1 || got[0] != "a@example.com" {
			t.Errorf("unexpected value: %v", got)
		}
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		s := newStore(t)
		if err := s.Delete(context.Background(), "nope"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	})

	t.Run("take is single use", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := SetJSON(ctx, s, "approval:abc", "a@example.com", time.Hour); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}

		data, err := s.Take(ctx, "approval:abc")
		if err != nil {
			t.Fatalf("first Take failed: %v", err)
		}
		if string(data) != `"a@example.com"` {
			t.Errorf("unexpected value: %s", data)
		}

		if _, err := s.Take(ctx, "approval:abc"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Take should return ErrNotFound, got %v", err)
		}
	})

	t.Run("update creates and mutates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, email := range []string{"a@example.com", "b@example.com"} {
			_, err := UpdateJSON(ctx, s, "list", func(v *[]string) (bool, error) {
				*v = append(*v, email)
				return true, nil
			})
			if err != nil {
				t.Fatalf("UpdateJSON failed: %v", err)
			}
		}

		var got []string
		if err := GetJSON(ctx, s, "list", &got); err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 entries, got %v", got)
		}
	})

	t.Run("update without change skips write", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		got, err := UpdateJSON(ctx, s, "untouched", func(v *[]string) (bool, error) {
			return false, nil
		})
		if err != nil {
			t.Fatalf("UpdateJSON failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil value, got %v", got)
		}
		if _, err := s.Get(ctx, "untouched"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected key to stay missing, got %v", err)
		}
	})

	t.Run("update propagates fn error", func(t *testing.T) {
		s := newStore(t)
		sentinel := errors.New("boom")

		_, err := UpdateJSON(context.Background(), s, "k", func(v *map[string]string) (bool, error) {
			return false, sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("expected sentinel error, got %v", err)
		}
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const writers = 20
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := UpdateJSON(ctx, s, "counter", func(v *int) (bool, error) {
					*v++
					return true, nil
				})
				if err != nil {
					t.Errorf("UpdateJSON failed: %v", err)
				}
			}()
		}
		wg.Wait()

		var got int
		if err := GetJSON(ctx, s, "counter", &got); err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
		if got != writers {
			t.Errorf("expected %d, got %d", writers, got)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewFile(t.TempDir())
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		return s
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "approval:x", []byte(`"a@example.com"`), 24*time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = now.Add(23 * time.Hour)
	if _, err := s.Get(ctx, "approval:x"); err != nil {
		t.Fatalf("expected key before expiry, got %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := s.Get(ctx, "approval:x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestFileStore_Expiry(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "approval:x", []byte(`"a@example.com"`), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Take(ctx, "approval:x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
	if _, err := os.Stat(s.expiryPath("approval:x")); !os.IsNotExist(err) {
		t.Errorf("expected expiry sidecar to be removed, stat err = %v", err)
	}
}

func TestFileStore_WritesPlainJSONArray(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	if err := s.Set(context.Background(), "subscribers:list", []byte(`["a@example.com"]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "subscribers%3Alist.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	want := "[\n  \"a@example.com\"\n]"
	if strings.TrimSpace(string(data)) != want {
		t.Errorf("unexpected file content:\n%s", data)
	}
}

func TestFileStore_UpdateKeepsExpiry(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte(`1`), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := UpdateJSON(ctx, s, "k", func(v *int) (bool, error) {
		*v = 2
		return true, nil
	}); err != nil {
		t.Fatalf("UpdateJSON failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected update to keep the original expiry, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"memory", Options{Backend: BackendMemory}, nil},
		{"file", Options{Backend: BackendFile, DataDir: t.TempDir()}, nil},
		{"file without dir", Options{Backend: BackendFile}, ErrNotConfigured},
		{"redis without url", Options{Backend: BackendRedis}, ErrNotConfigured},
		{"postgres without pool", Options{Backend: BackendPostgres}, ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer s.Close()
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}

	if _, err := Open(ctx, Options{Backend: "mongo"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
