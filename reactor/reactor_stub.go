//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback FDSet for platforms without an epoll-shaped multiplexer.
// Grounded on momentics-hioload-ws/reactor/reactor_stub.go.

package reactor

import "github.com/kienpl96/kannel/api"

// EpollFDSet is unavailable on this platform; New always fails so callers
// fall back to conn.Connection's unregistered Wait-based polling.
type EpollFDSet struct{}

// New returns api.ErrNotSupported on non-Linux platforms.
func New() (*EpollFDSet, error) {
	return nil, api.ErrNotSupported
}
