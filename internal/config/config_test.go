package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.LogLevel != "info" || c.Level() != logrus.InfoLevel {
		t.Errorf("log level: got %q", c.LogLevel)
	}
	if c.License.CacheTTL != 24*time.Hour || !*c.License.CacheEnabled || !*c.License.OfflineFallback {
		t.Errorf("license defaults: got %+v", c.License)
	}
	if c.Export.Format != "image/png" || c.Export.Quality != 0.92 {
		t.Errorf("export defaults: got %+v", c.Export)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
workers:
  offload: true
  count: 3
  timeout: 5s
license:
  key: ABC
  cache_ttl: 1h
  cache_enabled: false
  cache_path: /tmp/license.db
export:
  format: jpeg
  quality: 0.5
`)
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if c.Level() != logrus.DebugLevel {
		t.Errorf("level: got %v", c.Level())
	}
	if !c.Workers.Offload || c.Workers.Count != 3 || c.Workers.Timeout != 5*time.Second {
		t.Errorf("workers: got %+v", c.Workers)
	}
	if c.License.Key != "ABC" || c.License.CacheTTL != time.Hour || *c.License.CacheEnabled {
		t.Errorf("license: got %+v", c.License)
	}
	if !*c.License.OfflineFallback {
		t.Error("offline_fallback should default to true")
	}
	if c.Export.Format != "jpeg" || c.Export.Quality != 0.5 {
		t.Errorf("export: got %+v", c.Export)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "workers: [1, 2")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoad_Environment(t *testing.T) {
	path := writeConfig(t, "log_level: warn\nlicense:\n  key: FROMFILE\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvLicenseKey, "FROMENV")
	t.Setenv(EnvDevMode, "true")
	t.Setenv(EnvWorkers, "4")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.LogLevel != "warn" {
		t.Errorf("log level from file: got %q", c.LogLevel)
	}
	if c.License.Key != "FROMENV" || !c.License.DevMode {
		t.Errorf("license from env: got %+v", c.License)
	}
	if c.Workers.Count != 4 || !c.Workers.Offload {
		t.Errorf("workers from env: got %+v", c.Workers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"bad level", "log_level: loud\n", nil},
		{"negative workers", "workers:\n  count: -1\n", nil},
		{"bad format", "export:\n  format: gif\n", nil},
		{"bad dev mode", "", map[string]string{EnvDevMode: "perhaps"}},
		{"bad workers", "", map[string]string{EnvWorkers: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
