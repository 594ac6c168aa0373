package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Viewer.Source != "sse" || cfg.Simulator.Objects != 250 || cfg.Simulator.UpdateInterval != 100*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Viewer.Reconnect.RetryDelay != 500*time.Millisecond || cfg.Viewer.Reconnect.MaxRetryDelay != 30*time.Second {
		t.Fatalf("unexpected reconnect defaults: %+v", cfg.Viewer.Reconnect)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "assetmap.yaml")
	yml := `
viewer:
  source: mqtt
  css_width: 1024
  metadata_refresh: 30s
simulator:
  objects: 50
  update_interval: 250ms
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SIMULATOR_OBJECTS", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Viewer.Source != "mqtt" || cfg.Viewer.CSSWidth != 1024 || cfg.Viewer.MetadataRefresh != 30*time.Second {
		t.Fatalf("file values not applied: %+v", cfg.Viewer)
	}
	if cfg.Viewer.CSSHeight != 800 {
		t.Fatalf("defaults should survive a partial file, got height %v", cfg.Viewer.CSSHeight)
	}
	if cfg.Simulator.Objects != 75 || cfg.Simulator.UpdateInterval != 250*time.Millisecond {
		t.Fatalf("env should override file: %+v", cfg.Simulator)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("VIEWER_DPR", "0")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "device_pixel_ratio") || !strings.Contains(err.Error(), "MYSQL_HOST") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestLoadRejectsZeroMetadataRefresh(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("METADATA_REFRESH", "0s")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "metadata_refresh") {
		t.Fatalf("expected metadata_refresh error, got %v", err)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("hello", "k", 1)
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}

	buf.Reset()
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
}
