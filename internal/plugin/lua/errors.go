package lua

import "errors"

var (
	// ErrStateClosed indicates a call after Close.
	ErrStateClosed = errors.New("lua state closed")

	// ErrMissingInit indicates the script defines no plugin_init.
	ErrMissingInit = errors.New("script does not define plugin_init")

	// ErrMissingReceive indicates the script defines no plugin_receive.
	ErrMissingReceive = errors.New("script does not define plugin_receive")
)
