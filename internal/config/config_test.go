package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectTimeout != 30*time.Second {
		t.Fatalf("connect timeout = %s", cfg.ConnectTimeout)
	}
	if !cfg.VerifyTLS || cfg.FollowRedirects {
		t.Fatalf("expected tls verification on and redirects off by default: %#v", cfg)
	}
	if cfg.JournalType != "bbolt" || cfg.JournalTTL != 24*time.Hour {
		t.Fatalf("unexpected journal defaults: %#v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CONNECT_TIMEOUT_MS", "1500")
	t.Setenv("VERIFY_TLS", "false")
	t.Setenv("PROXY_URL", " http://proxy.local:3128 ")
	t.Setenv("JOURNAL_TYPE", "NONE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.HTTPOptions()
	if opts.ConnectTimeout != 1500*time.Millisecond {
		t.Fatalf("connect timeout = %s", opts.ConnectTimeout)
	}
	if !opts.InsecureSkipVerify {
		t.Fatalf("expected tls verification disabled")
	}
	if opts.Proxy != "http://proxy.local:3128" {
		t.Fatalf("proxy = %q", opts.Proxy)
	}
	if cfg.JournalType != "none" {
		t.Fatalf("journal type = %q", cfg.JournalType)
	}
}

func TestLoadRejectsInvalidTimeout(t *testing.T) {
	t.Setenv("CONNECT_TIMEOUT_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero connect timeout")
	}
}
