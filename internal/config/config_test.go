package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Mailbox.QueueCapacity != 256 {
		t.Errorf("QueueCapacity = %d, want 256", cfg.Mailbox.QueueCapacity)
	}
	if cfg.Mailbox.MaxPayload != 1<<20 {
		t.Errorf("MaxPayload = %d, want %d", cfg.Mailbox.MaxPayload, 1<<20)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Mailbox.QueueCapacity != 256 {
		t.Errorf("expected defaults, got capacity %d", cfg.Mailbox.QueueCapacity)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courier.toml")
	data := `
[mailbox]
queue_capacity = 64
max_payload = 4096

[plugins]
dirs = ["/opt/plugins"]
strict = true

[logging]
level = "DEBUG"
trace = true
trace_filter = "TICK"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mailbox.QueueCapacity != 64 {
		t.Errorf("QueueCapacity = %d, want 64", cfg.Mailbox.QueueCapacity)
	}
	if cfg.Mailbox.MaxPayload != 4096 {
		t.Errorf("MaxPayload = %d, want 4096", cfg.Mailbox.MaxPayload)
	}
	if len(cfg.Plugins.Dirs) != 1 || cfg.Plugins.Dirs[0] != "/opt/plugins" {
		t.Errorf("Dirs = %v", cfg.Plugins.Dirs)
	}
	if !cfg.Plugins.Strict {
		t.Error("Strict not set")
	}
	if cfg.Logging.Level != "DEBUG" || !cfg.Logging.Trace || cfg.Logging.TraceFilter != "TICK" {
		t.Errorf("logging section = %+v", cfg.Logging)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("mailbox = {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file should error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COURIER_QUEUE_CAPACITY", "32")
	t.Setenv("COURIER_LOG_LEVEL", "ERROR")
	t.Setenv("COURIER_PLUGIN_WATCH", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mailbox.QueueCapacity != 32 {
		t.Errorf("QueueCapacity = %d, want 32", cfg.Mailbox.QueueCapacity)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", cfg.Logging.Level)
	}
	if !cfg.Plugins.Watch {
		t.Error("Watch not set from env")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Mailbox.QueueCapacity = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Validate() = %v, want ErrInvalidCapacity", err)
	}

	cfg = Default()
	cfg.Mailbox.MaxPayload = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxPayload) {
		t.Errorf("Validate() = %v, want ErrInvalidMaxPayload", err)
	}
}

func TestEnvCapacityRejectedByValidate(t *testing.T) {
	t.Setenv("COURIER_QUEUE_CAPACITY", "-5")
	if _, err := Load(""); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Load() = %v, want ErrInvalidCapacity", err)
	}
}
