package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestYAMLAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte("" +
		"http:\n  bind: 127.0.0.1:9999\n" +
		"cors:\n  origin: http://example.com\n" +
		"logging:\n  level: debug\n" +
		"state:\n  dir: /tmp/state\n  snapsetDir: /tmp/sets\n" +
		"lvm:\n  commandTimeout: 45s\n" +
		"metrics:\n  enabled: false\n")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	// baseline from file
	cfg := Load(cfgPath)
	if cfg.Bind != "127.0.0.1:9999" {
		t.Fatalf("bind from yaml: %s", cfg.Bind)
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Fatalf("cors from yaml: %s", cfg.CORSOrigin)
	}
	if cfg.LogLevel.String() != "debug" {
		t.Fatalf("loglevel from yaml: %s", cfg.LogLevel)
	}
	if cfg.StateDir != "/tmp/state" || cfg.SnapsetDir != "/tmp/sets" {
		t.Fatalf("state dirs from yaml: %s %s", cfg.StateDir, cfg.SnapsetDir)
	}
	if cfg.CommandTimeout != 45*time.Second {
		t.Fatalf("timeout from yaml: %s", cfg.CommandTimeout)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("metrics should be disabled by yaml")
	}

	// env overrides file
	t.Setenv("SNAPLVD_BIND", "0.0.0.0:8080")
	t.Setenv("SNAPLVD_CORS_ORIGIN", "http://override")
	t.Setenv("SNAPLVD_LOG", "warn")
	t.Setenv("SNAPLVD_STATE_DIR", "/tmp/state2")
	t.Setenv("SNAPLVD_LVM_TIMEOUT", "2m")
	t.Setenv("SNAPLVD_METRICS", "1")

	cfg2 := Load(cfgPath)
	if cfg2.Bind != "0.0.0.0:8080" {
		t.Fatalf("bind env override: %s", cfg2.Bind)
	}
	if cfg2.CORSOrigin != "http://override" {
		t.Fatalf("cors env override: %s", cfg2.CORSOrigin)
	}
	if cfg2.LogLevel.String() != "warn" {
		t.Fatalf("log env override: %s", cfg2.LogLevel)
	}
	if cfg2.StateDir != "/tmp/state2" {
		t.Fatalf("state env override: %s", cfg2.StateDir)
	}
	if cfg2.CommandTimeout != 2*time.Minute {
		t.Fatalf("timeout env override: %s", cfg2.CommandTimeout)
	}
	if !cfg2.MetricsEnabled {
		t.Fatalf("metrics should be enabled by env")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Bind != "127.0.0.1:9600" {
		t.Fatalf("default bind: %s", cfg.Bind)
	}
	if cfg.CommandTimeout != 30*time.Second {
		t.Fatalf("default timeout: %s", cfg.CommandTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("metrics default on")
	}
}
