package config

import (
	"os"
	"testing"
)

func TestStoreLoadReflectsEdits(t *testing.T) {
	path := writeConfig(t, `{"relay": {"prefix": "!bot"}}`)

	store, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("NewStoreAt error: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"relay": {"prefix": "!relay"}}`), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Relay.Prefix != "!relay" {
		t.Fatalf("prefix = %q, want live edit to apply", cfg.Relay.Prefix)
	}
}

func TestStoreCurrentFallsBackToSnapshot(t *testing.T) {
	path := writeConfig(t, `{"relay": {"prefix": "!bot"}}`)

	store, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("NewStoreAt error: %v", err)
	}

	// Simulate the management interface mid-rewrite.
	if err := os.WriteFile(path, []byte(`{"relay":`), 0o600); err != nil {
		t.Fatalf("corrupt config: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatal("expected Load to fail on corrupt file")
	}

	cfg, err := store.Current()
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if cfg.Relay.Prefix != "!bot" {
		t.Fatalf("prefix = %q, want last good snapshot", cfg.Relay.Prefix)
	}
}

func TestStoreRequiresInitialLoad(t *testing.T) {
	if _, err := NewStoreAt("/does/not/exist.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
