package domain

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors for the offline core.
var (
	// ErrServerOffline indicates the remote endpoint is unreachable.
	// The facade treats it as a routing signal, never surfaces it from
	// a read path.
	ErrServerOffline = errors.New("server is unreachable")

	// ErrNotAuthenticated indicates the session token was rejected.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPlaylistNotFound indicates the playlist is unknown locally and,
	// while offline, cannot be resolved.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrNoDataCached indicates an offline operation needs data that was
	// never cached. Read paths map this to empty results; write paths
	// surface it with a descriptive wrap.
	ErrNoDataCached = errors.New("no data cached")
)

// RemoteError is a business/validation failure returned by the server. It is
// propagated verbatim to the caller and never triggers the offline fallback.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// IsNetworkError reports whether err is a transport-shaped failure: the kind
// that should flip the core offline rather than surface to the caller.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServerOffline) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsRemoteError reports whether err is a business failure from the server.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
