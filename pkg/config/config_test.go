package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"relay": {
			"bot_user_id": "bot-1",
			"prefix": "!bot",
			"allow_direct_messages": true,
			"guild_allowlist": ["g1", "g2"],
			"webhook_url": "https://hooks.example.com/primary",
			"webhooks": {"audit": "https://hooks.example.com/audit"},
			"shared_secret": "s3cret"
		},
		"sources": {"replay": {"enabled": true, "path": "events.jsonl"}}
	}`)
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Relay.BotUserID != "bot-1" {
		t.Fatalf("bot user id = %q, want bot-1", cfg.Relay.BotUserID)
	}
	if !cfg.Relay.AllowDirectMessages || cfg.Relay.AllowBroadcastMentions {
		t.Fatalf("relay flags = %+v, want DMs on and broadcasts off", cfg.Relay)
	}
	if len(cfg.Relay.GuildAllowlist) != 2 {
		t.Fatalf("allowlist = %v, want two entries", cfg.Relay.GuildAllowlist)
	}
	if cfg.Relay.Webhooks["audit"] != "https://hooks.example.com/audit" {
		t.Fatalf("webhooks = %v, want audit entry", cfg.Relay.Webhooks)
	}
	if !cfg.Sources.Replay.Enabled || cfg.Sources.Replay.Path != "events.jsonl" {
		t.Fatalf("replay = %+v, want enabled with path", cfg.Sources.Replay)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"relay": {"webhook_url": "https://hooks.example.com/file"}}`)
	t.Setenv(envConfigPath, path)
	t.Setenv(envWebhookURL, "https://hooks.example.com/env")
	t.Setenv(envSharedSecret, "env-secret")
	t.Setenv(envGuildAllowlist, " g1, ,g2 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Relay.WebhookURL != "https://hooks.example.com/env" {
		t.Fatalf("webhook url = %q, want env override", cfg.Relay.WebhookURL)
	}
	if cfg.Relay.SharedSecret != "env-secret" {
		t.Fatalf("secret = %q, want env override", cfg.Relay.SharedSecret)
	}
	if len(cfg.Relay.GuildAllowlist) != 2 || cfg.Relay.GuildAllowlist[0] != "g1" {
		t.Fatalf("allowlist = %v, want [g1 g2]", cfg.Relay.GuildAllowlist)
	}
}

func TestLoadConfigRejectsInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"relay":`)
	t.Setenv(envConfigPath, path)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTriggerPrefixDefault(t *testing.T) {
	t.Parallel()

	if got := (RelayConfig{}).TriggerPrefix(); got != DefaultPrefix {
		t.Fatalf("prefix = %q, want %q", got, DefaultPrefix)
	}
	if got := (RelayConfig{Prefix: " !relay "}).TriggerPrefix(); got != "!relay" {
		t.Fatalf("prefix = %q, want trimmed configured value", got)
	}
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	values := parseCSV("a, b ,, c")
	if len(values) != 3 || values[0] != "a" || values[1] != "b" || values[2] != "c" {
		t.Fatalf("parseCSV = %v, want [a b c]", values)
	}
}
