// File: conn/read.go
// unlockedRead / unlockedGet and the framed read operations, grounded on
// gwlib/conn.c's read_into_inbuf and the conn_read_* family: each tries to
// satisfy the request from inbuf, retries with exactly one more
// unlockedRead on shortfall, and gives up (nil) on continued shortfall —
// non-blocking semantics, never a blocking retry loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/threads"
)

// unlockedRead performs one non-blocking read of up to readChunk bytes
// into inbuf, first compacting away the already-consumed prefix. A
// zero-length read sets readEOF; any other error sets readErr. Either
// terminal flag clears POLLIN interest if registered. inMu must be held
// (or c claimed).
func (c *Connection) unlockedRead() {
	if c.inStart > 0 {
		c.inbuf.DeletePrefix(c.inStart)
		c.inStart = 0
	}
	fd, closed := c.fdOrClosed()
	if closed {
		return
	}

	scratch := make([]byte, readChunk)
	n, err := unix.Read(fd, scratch)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		c.readErr = true
		c.clearListenInLocked()
		return
	}
	if n == 0 {
		c.readEOF = true
		c.clearListenInLocked()
		return
	}
	c.inbuf.Append(scratch[:n])
}

func (c *Connection) clearListenInLocked() {
	if c.fdset == nil || !c.listenIn {
		return
	}
	fd, closed := c.fdOrClosed()
	if closed {
		return
	}
	_ = c.fdset.Listen(fd, threads.PollIn, 0)
	c.listenIn = false
}

// unlockedGet cuts n bytes starting at inStart and advances inStart past
// them. inMu must be held and unlockedInbufLen() >= n.
func (c *Connection) unlockedGet(n int) []byte {
	out := c.inbuf.Copy(c.inStart, c.inStart+n)
	c.inStart += n
	return out
}

// ReadEverything returns all bytes currently available, or nil if none.
func (c *Connection) ReadEverything() []byte {
	c.lockIn()
	defer c.unlockIn()

	if c.unlockedInbufLen() == 0 {
		c.unlockedRead()
	}
	n := c.unlockedInbufLen()
	if n == 0 {
		return nil
	}
	return c.unlockedGet(n)
}

// ReadFixed returns exactly n bytes, or nil if not yet available.
func (c *Connection) ReadFixed(n int) []byte {
	c.lockIn()
	defer c.unlockIn()

	if c.unlockedInbufLen() < n {
		c.unlockedRead()
	}
	if c.unlockedInbufLen() < n {
		return nil
	}
	return c.unlockedGet(n)
}

// ReadLine returns the bytes up to (but not including) the next LF; a
// trailing CR immediately before the LF is also stripped. The LF itself
// is consumed. Returns nil if no LF is yet available, without consuming
// anything.
func (c *Connection) ReadLine() []byte {
	c.lockIn()
	defer c.unlockIn()

	pos := c.inbuf.IndexByte(c.inStart, '\n')
	if pos < 0 {
		c.unlockedRead()
		pos = c.inbuf.IndexByte(c.inStart, '\n')
	}
	if pos < 0 {
		return nil
	}

	end := pos
	if end > c.inStart && c.inbuf.Bytes()[end-1] == '\r' {
		end--
	}
	line := c.inbuf.Copy(c.inStart, end)
	c.inStart = pos + 1
	return line
}

// ReadWithLength expects a 4-byte big-endian length followed by that many
// payload bytes. A length with the top bit set is corrupt: the 4 prefix
// bytes are discarded and framing is retried from the next 4 bytes. On
// success the prefix is consumed along with the payload. Returns nil if a
// complete frame isn't yet available.
func (c *Connection) ReadWithLength() []byte {
	c.lockIn()
	defer c.unlockIn()

	extraReadUsed := false
	for {
		if c.unlockedInbufLen() < 4 {
			if extraReadUsed {
				return nil
			}
			extraReadUsed = true
			c.unlockedRead()
			if c.unlockedInbufLen() < 4 {
				return nil
			}
		}

		length := decodeLengthPrefix(c.inbuf.Copy(c.inStart, c.inStart+4))
		if negativeLength(length) {
			c.inStart += 4
			continue
		}

		total := int(length)
		if c.unlockedInbufLen()-4 < total {
			if extraReadUsed {
				return nil
			}
			extraReadUsed = true
			c.unlockedRead()
			if c.unlockedInbufLen()-4 < total {
				return nil
			}
		}

		c.inStart += 4
		return c.unlockedGet(total)
	}
}

// ReadPacket scans for the next occurrence of startMark, discarding
// everything before it (the entire buffer if startMark never appears),
// then scans for the next endMark after start and returns the inclusive
// [startMark..endMark] substring. Returns nil when a complete frame isn't
// yet available; if the end mark is missing, nothing beyond the discarded
// prefix is consumed.
func (c *Connection) ReadPacket(startMark, endMark byte) []byte {
	c.lockIn()
	defer c.unlockIn()

	extraReadUsed := false
	for {
		startPos := c.inbuf.IndexByte(c.inStart, startMark)
		if startPos < 0 {
			c.inStart = c.inbuf.Len()
			if extraReadUsed {
				return nil
			}
			extraReadUsed = true
			c.unlockedRead()
			continue
		}
		c.inStart = startPos

		endPos := c.inbuf.IndexByte(c.inStart+1, endMark)
		if endPos < 0 {
			if extraReadUsed {
				return nil
			}
			extraReadUsed = true
			c.unlockedRead()
			continue
		}

		pkt := c.inbuf.Copy(c.inStart, endPos+1)
		c.inStart = endPos + 1
		return pkt
	}
}
