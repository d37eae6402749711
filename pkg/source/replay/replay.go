// Package replay feeds recorded events into the relay from a JSONL file,
// one inbound message per line. Used for local runs and for rehearsing
// destination configuration without a live gateway connection.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"hookbridge/pkg/config"
	"hookbridge/pkg/event"
	"hookbridge/pkg/source"
)

const sourceName = "replay"

// Lines longer than this are rejected rather than silently truncated.
const maxLineBytes = 1 << 20

// Adapter reads newline-delimited JSON messages from a file, or stdin when
// the configured path is "-".
type Adapter struct {
	cfg config.ReplayConfig
	log *slog.Logger
}

// NewAdapter validates replay configuration and constructs an adapter.
func NewAdapter(cfg config.ReplayConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sources.replay.path is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg: cfg,
		log: log.With("component", "source.replay"),
	}, nil
}

// Name returns the source identifier used in status reporting and logs.
func (a *Adapter) Name() string {
	return sourceName
}

// Run streams every recorded message through the handler in file order and
// returns when the input is exhausted or the context is canceled. A line
// that fails to parse is skipped; a handler error stops the replay.
func (a *Adapter) Run(ctx context.Context, handler source.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	reader, closer, err := a.open()
	if err != nil {
		return err
	}
	defer closer()

	a.log.Info("Replay source started", "path", a.cfg.Path)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNumber := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg event.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			a.log.Warn("Skipping unparseable replay line", "line", lineNumber, "error", err)
			continue
		}

		if err := handler(ctx, msg); err != nil {
			return fmt.Errorf("handle replay line %d: %w", lineNumber, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay input: %w", err)
	}

	a.log.Info("Replay source finished", "lines", lineNumber)

	return nil
}

func (a *Adapter) open() (io.Reader, func(), error) {
	path := strings.TrimSpace(a.cfg.Path)
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open replay input: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}
