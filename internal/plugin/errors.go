package plugin

import "errors"

var (
	// ErrManifestInvalid indicates a missing or malformed manifest.
	ErrManifestInvalid = errors.New("invalid plugin manifest")

	// ErrMissingEntryPoint indicates the manifest's main file is absent.
	ErrMissingEntryPoint = errors.New("plugin entry point not found")

	// ErrUnknownKind indicates no runtime is registered for the
	// manifest's kind.
	ErrUnknownKind = errors.New("unknown plugin kind")

	// ErrLoadFailure indicates the runtime could not be constructed.
	ErrLoadFailure = errors.New("plugin load failed")

	// ErrInitFailure indicates the plugin's initializer returned an
	// error. The plugin is fully unwound and owns no endpoint.
	ErrInitFailure = errors.New("plugin init failed")

	// ErrAlreadyLoaded indicates a plugin with the same name is live.
	ErrAlreadyLoaded = errors.New("plugin already loaded")

	// ErrNotLoaded indicates no plugin with that name is live.
	ErrNotLoaded = errors.New("plugin not loaded")
)
