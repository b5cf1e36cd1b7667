//go:build !windows

// File: threads/poll_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PollFD implements gwthread_pollfd: block on a single fd for the given
// interest mask, up to timeout, and report which of the requested events
// (plus POLLERR/POLLHUP/POLLNVAL) actually fired.

package threads

import (
	"time"

	"golang.org/x/sys/unix"
)

// Interest is a bitmask of readiness a caller wants to wait for.
type Interest int16

const (
	PollIn   Interest = unix.POLLIN
	PollOut  Interest = unix.POLLOUT
	PollErr  Interest = unix.POLLERR
	PollHup  Interest = unix.POLLHUP
	PollNval Interest = unix.POLLNVAL
)

// PollFD blocks until fd becomes ready per interest, timeout elapses, or a
// signal interrupts the call. timeout < 0 blocks indefinitely.
//
// Returns the revents bitmask, 0 on timeout, or -1 with err set to the
// underlying errno-derived error (including unix.EINTR, which callers must
// check for explicitly, matching gwthread_pollfd's behavior of surfacing
// EINTR to the caller rather than retrying internally).
func PollFD(fd int, interest Interest, timeout time.Duration) (revents Interest, err error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: int16(interest)}}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		return -1, err
	}
	if n == 0 {
		return 0, nil
	}
	return Interest(fds[0].Revents), nil
}

// IsEINTR reports whether err is the interrupted-syscall error PollFD
// returns when a signal interrupts the underlying poll(2) call.
func IsEINTR(err error) bool {
	return err == unix.EINTR
}
