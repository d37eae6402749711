package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envConfigPath     = "HOOKBRIDGE_CONFIG"
	envWebhookURL     = "HOOKBRIDGE_WEBHOOK_URL"
	envSharedSecret   = "HOOKBRIDGE_SHARED_SECRET"
	envGuildAllowlist = "HOOKBRIDGE_GUILD_ALLOWLIST"
)

// PlaceholderURL is the sentinel shipped in config templates; destinations
// still carrying it are excluded from dispatch.
const PlaceholderURL = "YOUR_WEBHOOK_URL_HERE"

// DefaultPrefix is the trigger prefix used when none is configured.
const DefaultPrefix = "!bot"

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Relay   RelayConfig   `json:"relay"`
	Sources SourcesConfig `json:"sources"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// RelayConfig controls trigger detection and webhook delivery.
type RelayConfig struct {
	BotUserID              string            `json:"bot_user_id"`
	Prefix                 string            `json:"prefix"`
	AllowBroadcastMentions bool              `json:"allow_broadcast_mentions"`
	AllowDirectMessages    bool              `json:"allow_direct_messages"`
	GuildAllowlist         []string          `json:"guild_allowlist,omitempty"`
	WebhookURL             string            `json:"webhook_url"`
	Webhooks               map[string]string `json:"webhooks,omitempty"`
	SharedSecret           string            `json:"shared_secret,omitempty"`
}

// TriggerPrefix returns the configured prefix or the default.
func (r RelayConfig) TriggerPrefix() string {
	if prefix := strings.TrimSpace(r.Prefix); prefix != "" {
		return prefix
	}

	return DefaultPrefix
}

// SourcesConfig stores event-source adapter settings.
type SourcesConfig struct {
	Replay ReplayConfig `json:"replay"`
}

// ReplayConfig configures the JSONL replay source.
type ReplayConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// GatewayConfig configures HTTP status endpoint bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format string `json:"format,omitempty"`
	Level  string `json:"level,omitempty"`
}

// LoadConfig resolves the config file, unmarshals it, and applies
// environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	return loadFromPath(configPath)
}

func loadFromPath(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if url := strings.TrimSpace(os.Getenv(envWebhookURL)); url != "" {
		cfg.Relay.WebhookURL = url
	}

	if secret := strings.TrimSpace(os.Getenv(envSharedSecret)); secret != "" {
		cfg.Relay.SharedSecret = secret
	}

	if rawAllowlist := strings.TrimSpace(os.Getenv(envGuildAllowlist)); rawAllowlist != "" {
		cfg.Relay.GuildAllowlist = parseCSV(rawAllowlist)
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is HOOKBRIDGE_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
