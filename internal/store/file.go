package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File stores each key as a JSON document in a directory.
//
// A key's value lives in <escaped key>.json exactly as written (indented when the
// value is valid JSON), so a subscriber list is a plain JSON array on disk.
// Expiry, when set, lives in a sidecar <escaped key>.expires file.
// Writers in the same process are serialized; separate processes are not.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFile creates a file store rooted at dir, creating the directory if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, ErrNotConfigured
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

func (f *File) valuePath(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+".json")
}

func (f *File) expiryPath(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+".expires")
}

// read must be called with mu held.
func (f *File) read(key string) ([]byte, error) {
	expires, err := os.ReadFile(f.expiryPath(key))
	switch {
	case err == nil:
		at, perr := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(expires)))
		if perr == nil && !f.now().Before(at) {
			_ = f.remove(key)
			return nil, ErrNotFound
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read expiry for %s: %w", key, err)
	}

	data, err := os.ReadFile(f.valuePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// write must be called with mu held. A zero ttl clears any previous expiry
// unless keepExpiry is set.
func (f *File) write(key string, value []byte, ttl time.Duration, keepExpiry bool) error {
	if json.Valid(value) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, value, "", "  "); err == nil {
			value = buf.Bytes()
		}
	}

	if err := writeFileAtomic(f.valuePath(key), value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	switch {
	case ttl > 0:
		at := f.now().Add(ttl).UTC().Format(time.RFC3339Nano)
		if err := writeFileAtomic(f.expiryPath(key), []byte(at)); err != nil {
			return fmt.Errorf("write expiry for %s: %w", key, err)
		}
	case !keepExpiry:
		if err := os.Remove(f.expiryPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear expiry for %s: %w", key, err)
		}
	}
	return nil
}

// remove must be called with mu held.
func (f *File) remove(key string) error {
	for _, p := range []string{f.valuePath(key), f.expiryPath(key)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// Get implements Store.
func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(key)
}

// Set implements Store.
func (f *File) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(key, value, ttl, false)
}

// Delete implements Store.
func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(key)
}

// Take implements Store.
func (f *File) Take(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read(key)
	if err != nil {
		return nil, err
	}
	if err := f.remove(key); err != nil {
		return nil, err
	}
	return data, nil
}

// Update implements Store.
func (f *File) Update(ctx context.Context, key string, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.write(key, next, 0, true)
}

// Ping verifies the data directory is still accessible.
func (f *File) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", f.dir)
	}
	return nil
}

// Close implements Store.
func (f *File) Close() error {
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
