package server

import (
	"errors"
)

// Sentinel errors for request handling.
var (
	// ErrUnknownField is returned when a request names a field that is not tracked.
	ErrUnknownField = errors.New("server: unknown field")

	// ErrHubClosed is returned when a websocket connects after Shutdown.
	ErrHubClosed = errors.New("server: hub closed")
)
