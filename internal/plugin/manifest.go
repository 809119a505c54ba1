package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/dshills/courier/internal/protocol"
)

// ManifestFile is the file name looked up inside a plugin directory.
const ManifestFile = "manifest.json"

// Plugin kinds with built-in runtimes.
const (
	KindLua    = "lua"
	KindNative = "native"
)

// Manifest describes one plugin module.
type Manifest struct {
	// Name is the unique plugin identifier and its bus endpoint name.
	Name string

	// Version is a semver string.
	Version string

	// Kind selects the runtime ("lua" or "native").
	Kind string

	// Main is the entry point path relative to the plugin directory.
	Main string

	// Endpoint is a requested bus address. Zero asks for any address;
	// the registry falls back to allocation when the hint is taken.
	Endpoint protocol.EndpointID

	// Description is free-form and optional.
	Description string

	// Dir is the plugin directory the manifest was loaded from.
	Dir string
}

// namePattern matches lowercase alphanumeric names with interior hyphens.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern matches simplified semver.
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?$`)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrManifestInvalid, path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrManifestInvalid, path)
	}

	doc := gjson.ParseBytes(data)
	m := &Manifest{
		Name:        doc.Get("name").String(),
		Version:     doc.Get("version").String(),
		Kind:        doc.Get("kind").String(),
		Main:        doc.Get("main").String(),
		Endpoint:    protocol.EndpointID(doc.Get("endpoint").Uint()),
		Description: doc.Get("description").String(),
		Dir:         filepath.Dir(path),
	}
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadManifestFromDir loads ManifestFile from a plugin directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

func (m *Manifest) applyDefaults() {
	if m.Kind == "" {
		m.Kind = KindLua
	}
	if m.Main == "" {
		switch m.Kind {
		case KindLua:
			m.Main = "init.lua"
		case KindNative:
			m.Main = "plugin.so"
		}
	}
}

// Validate checks manifest fields. The entry point's existence is
// checked too, since a missing file fails later with a worse message.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrManifestInvalid)
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: name %q must be lowercase alphanumeric with hyphens", ErrManifestInvalid, m.Name)
	}
	if m.Version != "" && !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: version %q is not semver", ErrManifestInvalid, m.Version)
	}
	if m.Kind != KindLua && m.Kind != KindNative {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	if m.Endpoint == protocol.Broadcast {
		return fmt.Errorf("%w: endpoint hint is the broadcast address", ErrManifestInvalid)
	}
	if _, err := os.Stat(m.EntryPoint()); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingEntryPoint, m.EntryPoint())
	}
	return nil
}

// EntryPoint returns the absolute path of the plugin's main file.
func (m *Manifest) EntryPoint() string {
	return filepath.Join(m.Dir, m.Main)
}
