// File: reactor/reactor.go
// Package reactor implements spec.md's FD Multiplexer: a thread-safe
// registry mapping file descriptors to interest masks and a user callback,
// invoking the callback from its own background goroutine when a
// descriptor becomes ready.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on momentics-hioload-ws/reactor/reactor.go's EventReactor
// interface, generalized from a fixed edge-triggered register to the
// register/Listen(interest-update)/Unregister lifecycle conn.Connection
// needs.

package reactor

import "github.com/kienpl96/kannel/threads"

// Callback is invoked when fd becomes ready for one or more of the events
// in revents. Invoked from the FDSet's own background goroutine.
type Callback func(fd int, revents threads.Interest, data any)

// FDSet is the FD Multiplexer contract.
type FDSet interface {
	// Register begins watching fd for the given interest, invoking cb with
	// data on readiness. Returns an error if fd is already registered.
	Register(fd int, interest threads.Interest, cb Callback, data any) error

	// Listen updates fd's interest mask: bits set in mask are updated to
	// the corresponding bit in values (0 or the bit itself). Only POLLIN
	// and POLLOUT are meaningful here.
	Listen(fd int, mask, values threads.Interest) error

	// Unregister stops watching fd. It blocks until any in-flight callback
	// for fd has returned, so the caller may safely free state the
	// callback touches immediately after Unregister returns.
	Unregister(fd int) error

	// Close shuts the FDSet down, unregistering everything and stopping
	// its background goroutine.
	Close() error
}
