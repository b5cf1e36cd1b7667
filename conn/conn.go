// File: conn/conn.go
// Package conn implements spec.md's Buffered Non-Blocking Connection: a
// bidirectional byte stream with two independent half-duplex locks,
// optional write buffering, and optional registration with an FD
// Multiplexer for callback-driven I/O.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded line for line on gwlib/conn.c's Connection struct and its
// lock_in/unlock_in/lock_out/unlock_out claim-bypass discipline, and on
// unlocked_write/unlocked_try_write/conn_flush/conn_set_output_buffering.
// Non-blocking socket setup is grounded on
// momentics-hioload-ws/internal/transport/transport_linux.go's direct
// golang.org/x/sys/unix socket usage.

package conn

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/api"
	"github.com/kienpl96/kannel/buffer"
	"github.com/kienpl96/kannel/reactor"
	"github.com/kienpl96/kannel/threads"
)

// readChunk is the number of bytes unlockedRead attempts per call, per
// gwlib/conn.c's fixed 4096-byte read size.
const readChunk = 4096

// Callback is invoked after new input has been read into a registered
// Connection's inbuf. data is the value passed to Register.
type Callback func(c *Connection, data any)

// Connection wraps a non-blocking fd with buffered, framed I/O and
// optional registration with an FD Multiplexer.
//
// input_lock (inMu) protects inbuf/inStart/readEOF/readErr/listenIn.
// output_lock (outMu) protects outbuf/outStart/outThreshold/listenOut.
// The registration fields (fdset/callback/callbackData) require both
// locks to mutate and either lock to read, always acquired output-then-
// input per spec.md §5.
type Connection struct {
	fd atomic.Int64 // -1 once destroyed

	claimed atomic.Bool

	inMu    sync.Mutex
	inbuf   *buffer.Buffer
	inStart int
	readEOF bool
	readErr bool

	outMu        sync.Mutex
	outbuf       *buffer.Buffer
	outStart     int
	outThreshold int

	fdset        reactor.FDSet
	callback     Callback
	callbackData any
	listenIn     bool
	listenOut    bool
}

func newConnection(fd int) (*Connection, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, api.NewError(api.ErrCodeInternal, "set nonblocking").WithContext("errno", err.Error())
	}
	c := &Connection{
		inbuf:  buffer.New(),
		outbuf: buffer.New(),
	}
	c.fd.Store(int64(fd))
	return c, nil
}

// WrapFD wraps an already-open, connected fd, switching it to
// non-blocking mode and initializing empty buffers, unregistered and
// unclaimed with output_buffering_threshold = 0.
func WrapFD(fd int) (*Connection, error) {
	return newConnection(fd)
}

// Claim marks c as owned by the calling goroutine for the remainder of
// its use: all subsequent locking becomes a no-op, and no other goroutine
// may touch c concurrently. Double-claim is a fatal program error.
func (c *Connection) Claim() {
	if !c.claimed.CompareAndSwap(false, true) {
		panic("conn: connection already claimed")
	}
}

func (c *Connection) lockIn()    { if !c.claimed.Load() { c.inMu.Lock() } }
func (c *Connection) unlockIn()  { if !c.claimed.Load() { c.inMu.Unlock() } }
func (c *Connection) lockOut()   { if !c.claimed.Load() { c.outMu.Lock() } }
func (c *Connection) unlockOut() { if !c.claimed.Load() { c.outMu.Unlock() } }

// lockBoth acquires both locks in output-then-input order, the order
// spec.md §5 requires for register/unregister.
func (c *Connection) lockBoth() {
	c.lockOut()
	c.lockIn()
}

func (c *Connection) unlockBoth() {
	c.unlockIn()
	c.unlockOut()
}

func (c *Connection) fdOrClosed() (fd int, closed bool) {
	v := c.fd.Load()
	return int(v), v < 0
}

// Destroy unregisters c if registered, attempts one best-effort
// non-blocking flush, closes fd, and releases both buffers. The caller
// warrants no other goroutine still references c; Destroy takes c's
// locks only while clearing a registration, and flushes and closes
// without them. Safe to call more than once.
func (c *Connection) Destroy() {
	if c.fdset != nil {
		if fdset, ufd, uclosed := c.unregisterLocked(); fdset != nil && !uclosed {
			_ = fdset.Unregister(ufd)
		}
	}
	fd, closed := c.fdOrClosed()
	if !closed {
		_, _ = c.unlockedWrite()
		unix.Close(fd)
		c.fd.Store(-1)
	}
	c.inbuf.Release()
	c.outbuf.Release()
}

func (c *Connection) unlockedOutbufLen() int { return c.outbuf.Len() - c.outStart }
func (c *Connection) unlockedInbufLen() int  { return c.inbuf.Len() - c.inStart }

// OutbufLen returns the number of bytes still buffered for write.
func (c *Connection) OutbufLen() int {
	c.lockOut()
	defer c.unlockOut()
	return c.unlockedOutbufLen()
}

// InbufLen returns the number of bytes buffered and not yet consumed by a
// read operation.
func (c *Connection) InbufLen() int {
	c.lockIn()
	defer c.unlockIn()
	return c.unlockedInbufLen()
}

// Eof reports whether a zero-length read has been observed. Sticky.
func (c *Connection) Eof() bool {
	c.lockIn()
	defer c.unlockIn()
	return c.readEOF
}

// ReadError reports whether a fatal read error has been observed. Sticky.
func (c *Connection) ReadError() bool {
	c.lockIn()
	defer c.unlockIn()
	return c.readErr
}

// SetOutputBuffering updates the buffering threshold; if the new
// threshold is at or below the currently buffered byte count, a drain is
// attempted immediately. Returns 0 (drained), 1 (still buffered), or -1
// with err set on a fatal write error.
func (c *Connection) SetOutputBuffering(threshold int) (int, error) {
	c.lockOut()
	defer c.unlockOut()

	c.outThreshold = threshold
	if c.unlockedOutbufLen() < threshold {
		if c.unlockedOutbufLen() > 0 {
			return 1, nil
		}
		return 0, nil
	}
	if _, err := c.unlockedTryWrite(); err != nil {
		return -1, err
	}
	if c.unlockedOutbufLen() > 0 {
		return 1, nil
	}
	return 0, nil
}

// Write appends p to outbuf and attempts a non-blocking drain. Returns 0
// (all drained), 1 (partial; data remains buffered), or -1 with err set
// on a fatal write error.
func (c *Connection) Write(p []byte) (int, error) {
	c.lockOut()
	defer c.unlockOut()

	c.outbuf.Append(p)
	if _, err := c.unlockedTryWrite(); err != nil {
		return -1, err
	}
	if c.unlockedOutbufLen() > 0 {
		return 1, nil
	}
	return 0, nil
}

// WriteWithLength prepends a 4-byte big-endian length prefix to p, then
// behaves like Write.
func (c *Connection) WriteWithLength(p []byte) (int, error) {
	framed := appendLengthPrefix(make([]byte, 0, 4+len(p)), p)
	return c.Write(framed)
}

// Flush blocks until outbuf is fully drained. Returns 0 on success, 1 if
// interrupted while waiting for writability (conn_wait's timeout/wake
// overload — see DESIGN.md), or -1 with err set on a fatal write error.
func (c *Connection) Flush() (int, error) {
	for {
		c.lockOut()
		if c.unlockedOutbufLen() == 0 {
			c.unlockOut()
			return 0, nil
		}
		wrote, err := c.unlockedWrite()
		buffered := c.unlockedOutbufLen()
		fd, closed := c.fdOrClosed()
		c.unlockOut()

		if err != nil {
			return -1, err
		}
		if buffered == 0 {
			return 0, nil
		}
		if closed {
			return -1, api.ErrTransportClosed
		}
		if wrote > 0 {
			continue
		}

		_, perr := threads.PollFD(fd, threads.PollOut, -1)
		if perr != nil {
			if threads.IsEINTR(perr) {
				return 1, nil
			}
			return -1, perr
		}
	}
}

// unlockedTryWrite implements gwlib's unlocked_try_write: a no-op unless
// buffered bytes have reached outThreshold, in which case it defers to
// unlockedWrite. Used by Write/WriteWithLength/SetOutputBuffering, which
// must respect the configured buffering threshold. outMu must be held (or
// c claimed).
func (c *Connection) unlockedTryWrite() (int, error) {
	if c.unlockedOutbufLen() < c.outThreshold {
		return 0, nil
	}
	return c.unlockedWrite()
}

// unlockedWrite implements gwlib's unlocked_write: issue one unconditional
// non-blocking write of everything buffered, ignoring outThreshold. Used by
// Flush, Wait, pollCallback, and Destroy, which must drain the buffer
// regardless of the configured threshold. outMu must be held (or c
// claimed).
func (c *Connection) unlockedWrite() (int, error) {
	buffered := c.unlockedOutbufLen()
	if buffered == 0 {
		return 0, nil
	}

	fd, closed := c.fdOrClosed()
	if closed {
		return 0, api.ErrTransportClosed
	}

	n, err := unix.Write(fd, c.outbuf.Bytes()[c.outStart:])
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, api.NewError(api.ErrCodeInternal, "write").WithContext("errno", err.Error())
	}

	c.outStart += n
	if c.outStart > c.outbuf.Len()/2 {
		c.outbuf.DeletePrefix(c.outStart)
		c.outStart = 0
	}

	if c.fdset != nil {
		on := c.unlockedOutbufLen() > 0
		var values threads.Interest
		if on {
			values = threads.PollOut
		}
		_ = c.fdset.Listen(fd, threads.PollOut, values)
		c.listenOut = on
	}
	return n, nil
}
