// Package native runs compiled Go plugins loaded with the standard
// library's plugin package.
//
// A native plugin is a .so built with -buildmode=plugin that exports
// two symbols:
//
//	var PluginInit func(self uint32,
//		send func(op, destination uint32, payload []byte) error,
//		resolve func(name string) (uint32, error),
//		log func(level, msg string)) error
//	var PluginReceive func(op, source, destination uint32, payload []byte) error
//
// The symbols use only built-in types so plugin builds never import
// this module; the plugin package demands exact type identity across
// the boundary. Payloads cross it as copies in both directions.
//
// The loader cannot unload shared objects, so Close only drops the
// runtime's references; the code stays mapped until process exit.
// Reloading the same plugin requires a restart.
package native
