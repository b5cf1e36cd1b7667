//go:build windows

// File: threads/poll_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threads

import (
	"time"

	"github.com/kienpl96/kannel/api"
)

// Interest mirrors the poll(2) event bits used on unix platforms.
type Interest int16

const (
	PollIn   Interest = 0x001
	PollOut  Interest = 0x004
	PollErr  Interest = 0x008
	PollHup  Interest = 0x010
	PollNval Interest = 0x020
)

// PollFD is not implemented on Windows; it always returns
// api.ErrNotSupported.
func PollFD(fd int, interest Interest, timeout time.Duration) (Interest, error) {
	return -1, api.ErrNotSupported
}

// IsEINTR is always false on Windows: there is no poll(2) EINTR to observe.
func IsEINTR(err error) bool {
	return false
}
