package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(handler, Config{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, logger)
}

func TestServer_RunAndShutdown(t *testing.T) {
	srv := newTestServer(t)

	var order []string
	srv.OnShutdown("storage", func(ctx context.Context) error {
		order = append(order, "storage")
		return nil
	})
	srv.OnShutdown("ratelimit", func(ctx context.Context) error {
		order = append(order, "ratelimit")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("unexpected body: %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	if len(order) != 2 || order[0] != "ratelimit" || order[1] != "storage" {
		t.Errorf("expected LIFO shutdown order, got %v", order)
	}
}

func TestServer_ShutdownErrors(t *testing.T) {
	srv := newTestServer(t)
	sentinel := errors.New("close failed")
	srv.OnShutdown("broken", func(ctx context.Context) error { return sentinel })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	<-srv.Ready()
	cancel()

	if err := <-done; !errors.Is(err, sentinel) {
		t.Errorf("expected shutdown error, got %v", err)
	}
}
