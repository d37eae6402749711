package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hookbridge/pkg/config"
	"hookbridge/pkg/event"
)

func writeReplayFile(t *testing.T, lines string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatalf("write replay file: %v", err)
	}

	return path
}

func TestNewAdapterRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewAdapter(config.ReplayConfig{}, nil); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestRunStreamsMessagesInOrder(t *testing.T) {
	t.Parallel()

	path := writeReplayFile(t, `{"id":"m1","content":"!bot one","author":{"id":"u1"},"guild_id":"g1"}

not json
{"id":"m2","content":"!bot two","author":{"id":"u1"},"guild_id":"g1"}
`)

	adapter, err := NewAdapter(config.ReplayConfig{Enabled: true, Path: path}, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	var handled []event.Message
	handler := func(_ context.Context, msg event.Message) error {
		handled = append(handled, msg)
		return nil
	}

	if err := adapter.Run(context.Background(), handler); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(handled) != 2 {
		t.Fatalf("handled = %d messages, want 2 with the bad line skipped", len(handled))
	}
	if handled[0].ID != "m1" || handled[1].ID != "m2" {
		t.Fatalf("handled order = %s, %s, want m1, m2", handled[0].ID, handled[1].ID)
	}
}

func TestRunStopsOnHandlerError(t *testing.T) {
	t.Parallel()

	path := writeReplayFile(t, `{"id":"m1","content":"x","author":{"id":"u1"}}
{"id":"m2","content":"y","author":{"id":"u1"}}
`)

	adapter, err := NewAdapter(config.ReplayConfig{Enabled: true, Path: path}, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	boom := errors.New("boom")
	calls := 0
	handler := func(_ context.Context, _ event.Message) error {
		calls++
		return boom
	}

	if err := adapter.Run(context.Background(), handler); !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped handler error", err)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestRunRequiresHandler(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(config.ReplayConfig{Path: "-"}, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	if err := adapter.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestRunMissingFile(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(config.ReplayConfig{Path: "/does/not/exist.jsonl"}, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	handler := func(_ context.Context, _ event.Message) error { return nil }
	if err := adapter.Run(context.Background(), handler); err == nil {
		t.Fatal("expected error for missing replay file")
	}
}
