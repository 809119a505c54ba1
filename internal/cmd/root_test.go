package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func resetFlags() {
	flagConfig = ""
	flagPlugins = nil
	flagPluginDirs = nil
	flagStrict = false
	flagWatch = false
	flagLogLevel = ""
	flagLogJSON = false
	flagTrace = false
	flagTraceFilter = ""
}

func TestBuildConfigFlagLayering(t *testing.T) {
	resetFlags()
	flagPlugins = []string{"/p/one"}
	flagPluginDirs = []string{"/p/dir"}
	flagStrict = true
	flagLogLevel = "DEBUG"
	flagTrace = true
	flagTraceFilter = "FAULT"

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if len(cfg.Plugins.Paths) != 1 || cfg.Plugins.Paths[0] != "/p/one" {
		t.Errorf("Paths = %v", cfg.Plugins.Paths)
	}
	if len(cfg.Plugins.Dirs) != 1 || cfg.Plugins.Dirs[0] != "/p/dir" {
		t.Errorf("Dirs = %v", cfg.Plugins.Dirs)
	}
	if !cfg.Plugins.Strict {
		t.Error("Strict flag not applied")
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if !cfg.Logging.Trace || cfg.Logging.TraceFilter != "FAULT" {
		t.Errorf("trace settings = %+v", cfg.Logging)
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	resetFlags()

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.Mailbox.QueueCapacity != 256 {
		t.Errorf("QueueCapacity = %d, want default 256", cfg.Mailbox.QueueCapacity)
	}
	if cfg.Plugins.Strict {
		t.Error("Strict should default off")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(buf.String(), "courier") {
		t.Errorf("version output = %q", buf.String())
	}
}
