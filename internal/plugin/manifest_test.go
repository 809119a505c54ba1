package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/courier/internal/protocol"
)

// writePlugin creates a plugin directory with a manifest and entry
// point, returning the directory path.
func writePlugin(t *testing.T, manifest, entry string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if entry != "" {
		if err := os.WriteFile(filepath.Join(dir, entry), []byte("-- entry\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writePluginAt is like writePlugin but places the plugin in a named
// subdirectory of parent.
func writePluginAt(t *testing.T, parent, name, manifest, entry string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if entry != "" {
		if err := os.WriteFile(filepath.Join(dir, entry), []byte("-- entry\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadManifest(t *testing.T) {
	dir := writePlugin(t, `{
		"name": "renderer",
		"version": "1.2.0",
		"kind": "lua",
		"main": "main.lua",
		"endpoint": 16,
		"description": "draws frames"
	}`, "main.lua")

	m, err := LoadManifestFromDir(dir)
	if err != nil {
		t.Fatalf("LoadManifestFromDir() error = %v", err)
	}
	if m.Name != "renderer" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q", m.Version)
	}
	if m.Endpoint != protocol.EndpointID(16) {
		t.Errorf("Endpoint = %d", m.Endpoint)
	}
	if m.EntryPoint() != filepath.Join(dir, "main.lua") {
		t.Errorf("EntryPoint() = %q", m.EntryPoint())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := writePlugin(t, `{"name": "echo"}`, "init.lua")

	m, err := LoadManifestFromDir(dir)
	if err != nil {
		t.Fatalf("LoadManifestFromDir() error = %v", err)
	}
	if m.Kind != KindLua {
		t.Errorf("Kind = %q, want lua", m.Kind)
	}
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want init.lua", m.Main)
	}
	if m.Endpoint != 0 {
		t.Errorf("Endpoint = %d, want 0", m.Endpoint)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		entry    string
		want     error
	}{
		{"not json", "not json at all", "init.lua", ErrManifestInvalid},
		{"missing name", `{"version": "1.0.0"}`, "init.lua", ErrManifestInvalid},
		{"bad name", `{"name": "Bad Name"}`, "init.lua", ErrManifestInvalid},
		{"bad version", `{"name": "p", "version": "one"}`, "init.lua", ErrManifestInvalid},
		{"bad kind", `{"name": "p", "kind": "wasm"}`, "init.lua", ErrUnknownKind},
		{"broadcast hint", `{"name": "p", "endpoint": 4294967295}`, "init.lua", ErrManifestInvalid},
		{"missing entry", `{"name": "p"}`, "", ErrMissingEntryPoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePlugin(t, tt.manifest, tt.entry)
			if _, err := LoadManifestFromDir(dir); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifestFromDir(t.TempDir()); !errors.Is(err, ErrManifestInvalid) {
		t.Errorf("error = %v, want ErrManifestInvalid", err)
	}
}
