package webhook

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"hookbridge/pkg/config"
)

// DefaultDestinationName is the reserved key for the primary webhook slot.
const DefaultDestinationName = "default"

// Destination is one named outbound webhook URL.
type Destination struct {
	Name string
	URL  string
}

// DestinationSet is the resolved, validated set of destinations for one
// dispatch, in send order, plus the shared signing secret.
type DestinationSet struct {
	Destinations []Destination
	Secret       string
}

// ConfigSource yields the current configuration. Satisfied by
// *config.Store, whose Current falls back to the last good snapshot when a
// live read fails.
type ConfigSource interface {
	Current() (*config.Config, error)
}

// Registry resolves destinations from live configuration on every call, so
// edits made through the management interface apply to the next dispatch
// without a restart.
type Registry struct {
	source ConfigSource
	log    *slog.Logger
}

// NewRegistry builds a registry over the given configuration source.
func NewRegistry(source ConfigSource, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		source: source,
		log:    log.With("component", "webhook.registry"),
	}
}

// Resolve reads the current configuration and returns the validated
// destination set. The default destination comes first, followed by named
// destinations in name order. Placeholder, empty, and malformed URLs are
// excluded rather than failing the dispatch.
func (r *Registry) Resolve() (DestinationSet, error) {
	cfg, err := r.source.Current()
	if err != nil {
		return DestinationSet{}, fmt.Errorf("resolve destinations: %w", err)
	}

	set := DestinationSet{Secret: strings.TrimSpace(cfg.Relay.SharedSecret)}

	if destination, ok := r.validate(DefaultDestinationName, cfg.Relay.WebhookURL); ok {
		set.Destinations = append(set.Destinations, destination)
	}

	names := make([]string, 0, len(cfg.Relay.Webhooks))
	for name := range cfg.Relay.Webhooks {
		if strings.TrimSpace(name) == "" || name == DefaultDestinationName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if destination, ok := r.validate(name, cfg.Relay.Webhooks[name]); ok {
			set.Destinations = append(set.Destinations, destination)
		}
	}

	return set, nil
}

// validate filters out unset slots silently and malformed URLs with a log
// line at this boundary.
func (r *Registry) validate(name, rawURL string) (Destination, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || trimmed == config.PlaceholderURL {
		return Destination{}, false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		r.log.Warn("Excluding malformed destination URL", "destination", name)
		return Destination{}, false
	}

	return Destination{Name: name, URL: trimmed}, true
}
