// Package webhook delivers normalized payloads to configured destinations
// with signing, bounded retries, and per-destination result reporting.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"hookbridge/pkg/payload"
	"hookbridge/pkg/trigger"
)

const (
	HeaderTimestamp = "X-Relay-Timestamp"
	HeaderSignature = "X-Relay-Signature"

	requestTimeout = 10 * time.Second
	maxRetries     = 3
	baseBackoff    = time.Second
	maxBackoff     = 8 * time.Second
)

// Result records the outcome of delivery to one destination. URL is masked
// because webhook URLs embed a capability token.
type Result struct {
	Destination string `json:"destination"`
	URL         string `json:"url"`
	Success     bool   `json:"success"`
	StatusCode  int    `json:"status_code,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Dispatcher sends payloads to every resolved destination sequentially,
// retrying transient failures per destination.
type Dispatcher struct {
	registry *Registry
	client   *http.Client
	log      *slog.Logger

	// sleep and now are injection points for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewDispatcher builds a dispatcher over the given registry.
func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		registry: registry,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log.With("component", "webhook.dispatcher"),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Dispatch serializes the payload once and delivers it to every destination
// in registry order, returning one result per attempted destination. Zero
// configured destinations yields an empty result list, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, p payload.Payload) ([]Result, error) {
	set, err := d.registry.Resolve()
	if err != nil {
		return nil, err
	}
	if len(set.Destinations) == 0 {
		return []Result{}, nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	results := make([]Result, 0, len(set.Destinations))
	for _, destination := range set.Destinations {
		result := d.send(ctx, destination, body, set.Secret)
		if result.Success {
			d.log.Info("Delivered payload", "destination", result.Destination, "url", result.URL, "status", result.StatusCode)
		} else {
			d.log.Warn("Delivery failed", "destination", result.Destination, "url", result.URL, "status", result.StatusCode, "error", result.Error)
		}
		results = append(results, result)
	}

	return results, nil
}

// TestSend delivers a synthetic connectivity-check payload to one URL,
// bypassing the registry.
func (d *Dispatcher) TestSend(ctx context.Context, rawURL, secret string) Result {
	body, err := json.Marshal(TestPayload(d.now()))
	if err != nil {
		return Result{Destination: "test", URL: MaskURL(rawURL), Error: fmt.Sprintf("encode payload: %v", err)}
	}

	return d.send(ctx, Destination{Name: "test", URL: rawURL}, body, strings.TrimSpace(secret))
}

// TestPayload builds the synthetic payload used for connectivity checks.
func TestPayload(at time.Time) payload.Payload {
	timestamp := at.UTC().Format(time.RFC3339)

	return payload.Payload{
		EventType: payload.EventTypeTest,
		Relay: payload.Relay{
			Version:     payload.RelayVersion,
			Source:      payload.RelaySource,
			BotCalled:   false,
			MatchedRule: trigger.RuleTest,
		},
		Timestamp: timestamp,
		Guild:     nil,
		Channel:   payload.Channel{ID: "0", Name: "test", Type: 0},
		Message: payload.Message{
			ID:           uuid.NewString(),
			Content:      "hookbridge connectivity test",
			CleanContent: "hookbridge connectivity test",
			CreatedAt:    timestamp,
			Attachments:  []payload.Attachment{},
			Embeds:       []payload.Embed{},
		},
		Author: payload.Author{
			ID:          "0",
			Username:    "hookbridge",
			DisplayName: "hookbridge",
			Bot:         true,
		},
	}
}

// send runs the per-destination retry loop: up to four attempts with
// exponential backoff. [200,300) is success, [400,500) is terminal, 5xx and
// transport errors are retried.
func (d *Dispatcher) send(ctx context.Context, destination Destination, body []byte, secret string) Result {
	result := Result{Destination: destination.Name, URL: MaskURL(destination.URL)}

	signature := ""
	if secret != "" {
		signature = Sign(body, secret)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			d.sleep(backoffDelay(attempt))
		}

		status, err := d.attempt(ctx, destination.URL, body, signature)
		if err != nil {
			result.StatusCode = 0
			result.Error = err.Error()
			continue
		}

		result.StatusCode = status
		switch {
		case status >= 200 && status < 300:
			result.Success = true
			result.Error = ""
			return result
		case status >= 400 && status < 500:
			result.Error = fmt.Sprintf("destination rejected request with status %d", status)
			return result
		default:
			result.Error = fmt.Sprintf("destination returned status %d", status)
		}
	}

	return result
}

func (d *Dispatcher) attempt(ctx context.Context, rawURL string, body []byte, signature string) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(HeaderTimestamp, d.now().UTC().Format(time.RFC3339))
	if signature != "" {
		request.Header.Set(HeaderSignature, signature)
	}

	response, err := d.client.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	return response.StatusCode, nil
}

// backoffDelay returns the wait before the given retry attempt: 1s, 2s, 4s,
// capped at 8s.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << (attempt - 1)
	if delay > maxBackoff {
		return maxBackoff
	}

	return delay
}

// AnySuccess reports whether at least one destination accepted the payload.
func AnySuccess(results []Result) bool {
	for _, result := range results {
		if result.Success {
			return true
		}
	}

	return false
}

// MaskURL redacts the token-bearing tail of a webhook URL for logs and
// results.
func MaskURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return "invalid-url"
	}

	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed == "" {
		return parsed.Scheme + "://" + parsed.Host
	}

	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	if len(last) > 4 {
		last = last[:4] + "****"
	}
	segments[len(segments)-1] = last

	return parsed.Scheme + "://" + parsed.Host + "/" + strings.Join(segments, "/")
}
