package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadTestConfig(path string) (testConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testConfig{}, err
	}
	var cfg testConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func TestWatcherBasicReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"initial\"\nvalue = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan testConfig, 1)
	watcher := NewWatcher(path, loadTestConfig, nil, WithDebounce[testConfig](50*time.Millisecond))
	watcher.OnReload(func(cfg testConfig) {
		received <- cfg
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 42 {
			t.Errorf("got %+v, want name=updated value=42", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"a\"\nvalue = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int64
	watcher := NewWatcher(path, loadTestConfig, nil, WithDebounce[testConfig](200*time.Millisecond))
	watcher.OnReload(func(testConfig) {
		reloads.Add(1)
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	// Several rapid writes should collapse into a single reload.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("name = \"b\"\nvalue = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1", n)
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"ok\"\nvalue = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loadErrs := make(chan error, 1)
	failing := func(string) (testConfig, error) {
		return testConfig{}, errors.New("bad config")
	}
	watcher := NewWatcher(path, failing, nil,
		WithDebounce[testConfig](50*time.Millisecond),
		WithErrorHandler[testConfig](func(err error) { loadErrs <- err }),
	)
	var called atomic.Bool
	watcher.OnReload(func(testConfig) { called.Store(true) })

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("name = \"new\"\nvalue = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-loadErrs:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if called.Load() {
		t.Error("handlers must not run when the load fails")
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"a\"\nvalue = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var first, second atomic.Int64
	watcher := NewWatcher(path, loadTestConfig, nil, WithDebounce[testConfig](50*time.Millisecond))
	unsub := watcher.OnReload(func(testConfig) { first.Add(1) })
	watcher.OnReload(func(testConfig) { second.Add(1) })
	unsub()

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("name = \"b\"\nvalue = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
	if second.Load() == 0 {
		t.Error("remaining handler was not called")
	}
}
