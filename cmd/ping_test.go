package cmd

import (
	"strings"
	"testing"

	"hookbridge/pkg/webhook"
)

func TestResolvePingURL(t *testing.T) {
	if got := resolvePingURL(nil, " https://hooks.example.com/a "); got != "https://hooks.example.com/a" {
		t.Fatalf("resolvePingURL flag = %q", got)
	}
	if got := resolvePingURL([]string{"https://hooks.example.com/b"}, ""); got != "https://hooks.example.com/b" {
		t.Fatalf("resolvePingURL arg = %q", got)
	}
	if got := resolvePingURL(nil, ""); got != "" {
		t.Fatalf("resolvePingURL empty = %q", got)
	}
}

func TestFormatResult(t *testing.T) {
	ok := formatResult(webhook.Result{Destination: "default", URL: "https://h/x", Success: true, StatusCode: 204})
	if ok != "default: ok (204) https://h/x" {
		t.Fatalf("formatResult success = %q", ok)
	}

	failed := formatResult(webhook.Result{Destination: "audit", URL: "https://h/y", StatusCode: 404, Error: "rejected"})
	if !strings.Contains(failed, "failed (404)") || !strings.Contains(failed, "rejected") {
		t.Fatalf("formatResult failure = %q", failed)
	}

	transport := formatResult(webhook.Result{Destination: "audit", URL: "https://h/y", Error: "connection refused"})
	if strings.Contains(transport, "(0)") {
		t.Fatalf("formatResult transport = %q, want no status code", transport)
	}
}
