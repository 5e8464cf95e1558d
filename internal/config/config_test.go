package config

import (
	"os"
	"testing"
)

// unsetEnv clears a variable for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "STORE_DRIVER", "FLUSH_SCHEDULE", "MDNS_ENABLED", "HISTORY_LIMIT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.FlushSchedule != "@every 10s" {
		t.Errorf("FlushSchedule = %q", cfg.FlushSchedule)
	}
	if cfg.MDNSEnabled {
		t.Error("MDNSEnabled should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("MDNS_ENABLED", "true")
	t.Setenv("HISTORY_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.StoreDriver != DriverPostgres || !cfg.MDNSEnabled || cfg.HistoryLimit != 50 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: " http://a.test , https://b.test:8443,, "}

	origins := cfg.Origins()
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "https://b.test:8443" {
		t.Fatalf("Origins = %q", origins)
	}
	hosts := cfg.OriginHosts()
	if len(hosts) != 2 || hosts[0] != "a.test" || hosts[1] != "b.test:8443" {
		t.Fatalf("OriginHosts = %q", hosts)
	}
}
