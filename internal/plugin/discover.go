package plugin

import (
	"fmt"
	"os"
	"path/filepath"
)

// Discover scans a directory for plugin subdirectories, identified by
// the presence of a manifest file, and returns their paths sorted the
// way the filesystem lists them.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning plugin dir %s: %w", dir, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(sub, ManifestFile)); err == nil {
			dirs = append(dirs, sub)
		}
	}
	return dirs, nil
}

// LoadDir discovers and loads every plugin under dir. When strict is
// set the first failure aborts; otherwise failures are logged and the
// rest still load. Returns the loaded instances.
func (m *Manager) LoadDir(dir string, strict bool) ([]*Instance, error) {
	dirs, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	var loaded []*Instance
	for _, sub := range dirs {
		in, err := m.Load(sub)
		if err != nil {
			if strict {
				return loaded, err
			}
			m.log.Warn("skipping plugin", "dir", sub, "error", err)
			continue
		}
		loaded = append(loaded, in)
	}
	return loaded, nil
}
