// Package config loads Courier's runtime configuration.
//
// Configuration is layered. Defaults are applied first, then values
// from a TOML file, then COURIER_* environment variables. A missing
// config file is not an error; a malformed one is.
package config
