// File: conn/poll.go
// Register/Unregister/Wait/pollCallback, grounded on gwlib/conn.c's
// conn_register/conn_unregister/conn_wait/poll_callback.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"time"

	"github.com/kienpl96/kannel/api"
	"github.com/kienpl96/kannel/reactor"
	"github.com/kienpl96/kannel/threads"
)

// Register idempotently re-binds cb/data if c is already registered to
// fdset, fails with api.ErrAlreadyExists if registered to a different
// fdset, and otherwise initializes interest as POLLIN (unless at a
// terminal EOF/error state) plus POLLOUT iff bytes are already buffered,
// then registers with fdset. Locks are acquired output-then-input.
func (c *Connection) Register(fdset reactor.FDSet, cb Callback, data any) error {
	c.lockBoth()
	defer c.unlockBoth()

	if c.fdset != nil {
		if c.fdset != fdset {
			return api.ErrAlreadyExists
		}
		c.callback = cb
		c.callbackData = data
		return nil
	}

	fd, closed := c.fdOrClosed()
	if closed {
		return api.ErrTransportClosed
	}

	wantIn := !c.readEOF && !c.readErr
	wantOut := c.unlockedOutbufLen() > 0

	var interest threads.Interest
	if wantIn {
		interest |= threads.PollIn
	}
	if wantOut {
		interest |= threads.PollOut
	}

	if err := fdset.Register(fd, interest, c.pollCallback, nil); err != nil {
		return err
	}

	c.fdset = fdset
	c.callback = cb
	c.callbackData = data
	c.listenIn = wantIn
	c.listenOut = wantOut
	return nil
}

// Unregister clears registration and listening flags and unregisters from
// the fdset. A no-op if c is not registered.
//
// fdset.Unregister blocks until any in-flight pollCallback invocation for
// fd has returned, and pollCallback itself acquires c's locks. Calling it
// while still holding those locks would invert lock order against the
// reactor's own internal lock (held across the callback dispatch) and
// deadlock, so the fdset handle is captured under the locks and
// unregistered only after they are released.
func (c *Connection) Unregister() error {
	fdset, fd, closed := c.unregisterLocked()
	if fdset == nil || closed {
		return nil
	}
	return fdset.Unregister(fd)
}

// unregisterLocked clears registration state under both conn locks and
// returns the fdset/fd the caller must unregister from, unlocked.
func (c *Connection) unregisterLocked() (fdset reactor.FDSet, fd int, closed bool) {
	c.lockBoth()
	defer c.unlockBoth()

	if c.fdset == nil {
		return nil, 0, false
	}
	fd, closed = c.fdOrClosed()
	fdset = c.fdset
	c.fdset = nil
	c.callback = nil
	c.callbackData = nil
	c.listenIn = false
	c.listenOut = false
	return fdset, fd, closed
}

// pollCallback is the reactor.Callback bound to c's fd on Register. On
// POLLOUT it drains unconditionally via unlockedWrite (which self-adjusts
// POLLOUT interest); on POLLIN it reads into inbuf and invokes the user
// callback.
func (c *Connection) pollCallback(fd int, revents threads.Interest, _ any) {
	if revents&threads.PollOut != 0 {
		c.lockOut()
		_, _ = c.unlockedWrite()
		c.unlockOut()
	}
	if revents&threads.PollIn != 0 {
		c.lockIn()
		c.unlockedRead()
		cb, data := c.callback, c.callbackData
		c.unlockIn()
		if cb != nil {
			cb(c, data)
		}
	}
}

// Wait is a helper for non-registered use: it attempts a non-blocking
// drain first (returning 0 if that wrote anything), otherwise computes
// the interest to wait for and blocks in threads.PollFD up to timeout,
// dispatching whatever became ready. Returns 0 on progress, 1 on timeout,
// -1 with err set on error. EINTR during the poll returns 0, matching
// conn_wait's return-value overload (see DESIGN.md).
func (c *Connection) Wait(timeout time.Duration) (int, error) {
	c.lockOut()
	wrote, err := c.unlockedWrite()
	c.unlockOut()
	if err != nil {
		return -1, err
	}
	if wrote > 0 {
		return 0, nil
	}

	c.lockBoth()
	wantOut := c.unlockedOutbufLen() > 0
	wantIn := !wantOut && !c.readEOF && !c.readErr
	fd, closed := c.fdOrClosed()
	c.unlockBoth()
	if closed {
		return -1, api.ErrTransportClosed
	}

	var interest threads.Interest
	if wantIn {
		interest |= threads.PollIn
	}
	if wantOut {
		interest |= threads.PollOut
	}
	if interest == 0 {
		return 0, nil
	}

	revents, perr := threads.PollFD(fd, interest, timeout)
	if perr != nil {
		if threads.IsEINTR(perr) {
			return 0, nil
		}
		return -1, perr
	}
	if revents == 0 {
		return 1, nil
	}

	if revents&threads.PollOut != 0 {
		c.lockOut()
		_, _ = c.unlockedWrite()
		c.unlockOut()
	}
	if revents&threads.PollIn != 0 {
		c.lockIn()
		c.unlockedRead()
		c.unlockIn()
	}
	return 0, nil
}
