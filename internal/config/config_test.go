package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionStore != SessionStoreFile {
		t.Errorf("SessionStore = %q, want %q", cfg.SessionStore, SessionStoreFile)
	}
	if cfg.NotificationTTL != 6*time.Second {
		t.Errorf("NotificationTTL = %v, want 6s", cfg.NotificationTTL)
	}
	if cfg.RouteQuotaPerMinute != 0 {
		t.Errorf("RouteQuotaPerMinute = %d, want 0", cfg.RouteQuotaPerMinute)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.carnest.test/")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "3s")
	t.Setenv("ROUTE_QUOTA_PER_MINUTE", "60")
	t.Setenv("NEW_RELIC_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BackendURL != "https://api.carnest.test" {
		t.Errorf("BackendURL = %q, want trailing slash trimmed", cfg.BackendURL)
	}
	if cfg.SessionStore != SessionStoreRedis {
		t.Errorf("SessionStore = %q, want redis", cfg.SessionStore)
	}
	if cfg.HTTPClientTimeout != 3*time.Second {
		t.Errorf("HTTPClientTimeout = %v, want 3s", cfg.HTTPClientTimeout)
	}
	if cfg.RouteQuotaPerMinute != 60 {
		t.Errorf("RouteQuotaPerMinute = %d, want 60", cfg.RouteQuotaPerMinute)
	}
	if !cfg.NewRelicEnabled {
		t.Error("NewRelicEnabled = false, want true")
	}
	if !cfg.UsesRedis() {
		t.Error("UsesRedis() = false, want true")
	}
}

func TestLoadMemorySessionStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Errorf("SessionStore = %q, want %q", cfg.SessionStore, SessionStoreMemory)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("SESSION_STORE", "cookie")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "soon")
	t.Setenv("DB_MAX_CONNECTIONS", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}

	for _, want := range []string{"SESSION_STORE", "HTTP_CLIENT_TIMEOUT", "DB_MAX_CONNECTIONS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}
