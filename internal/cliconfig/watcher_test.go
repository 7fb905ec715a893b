package cliconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`endpoint = "a"`), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := &Watcher{
		Path:     path,
		Debounce: 50 * time.Millisecond,
		OnChange: func() { calls.Add(1) },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`endpoint = "b"`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// unrelated files in the same directory are ignored
	_ = os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0644)

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("OnChange called %d times, want 1", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := &Watcher{Path: "/nonexistent/geoship/config.toml", OnChange: func() {}}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() expected error for missing directory")
	}
}
