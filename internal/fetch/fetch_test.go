package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{Host: "192.0.2.1", User: "admin", KeyPath: "/tmp/key"}, nil)

	if c.cfg.Port != 22 {
		t.Errorf("default port = %d, want 22", c.cfg.Port)
	}
	if c.cfg.Timeout != 30*time.Second {
		t.Errorf("default timeout = %s, want 30s", c.cfg.Timeout)
	}
}

func TestFetchMissingKey(t *testing.T) {
	c := New(Config{
		Host:    "192.0.2.1",
		User:    "admin",
		KeyPath: filepath.Join(t.TempDir(), "no-such-key"),
	}, nil)

	// The key is read before any network activity, so this fails fast.
	_, err := c.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if ferr.Host != "192.0.2.1" {
		t.Errorf("error host = %q", ferr.Host)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing key cause not preserved: %v", err)
	}
}

func TestFetchBadKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_bad")
	writeFile(t, keyPath, "not a private key")

	c := New(Config{Host: "192.0.2.1", User: "admin", KeyPath: keyPath}, nil)
	_, err := c.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}
