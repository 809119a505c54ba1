// Package plugin discovers, loads, and supervises plugin modules.
//
// A plugin ships as a directory containing a manifest.json and an
// entry point. The manager parses the manifest, builds a runtime for
// the declared kind, registers the plugin as a bus endpoint, runs its
// initializer, and activates it. Unloading reverses the sequence:
// drain, wait, close.
package plugin
