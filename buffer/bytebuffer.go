// File: buffer/bytebuffer.go
// Package buffer implements the appendable, sliceable byte buffer shared by
// the connection's read and write paths.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is deliberately not safe for concurrent use; callers (conn.Connection)
// hold their own locks around it, matching gwlib's Octstr usage from conn.c
// where the mutex lives one level up.

package buffer

import (
	"github.com/valyala/bytebufferpool"
)

// Buffer is a growable byte buffer with the primitives conn.Connection needs
// for its inbuf/outbuf: append, prefix-delete, copy, and byte search. It
// has no write-to-fd operation; callers write Bytes() to the fd themselves.
type Buffer struct {
	b *bytebufferpool.ByteBuffer
}

// New returns an empty Buffer drawn from the shared bytebufferpool.
func New() *Buffer {
	return &Buffer{b: bytebufferpool.Get()}
}

// Release returns the underlying storage to the shared pool. After Release
// the Buffer must not be used.
func (buf *Buffer) Release() {
	if buf.b != nil {
		bytebufferpool.Put(buf.b)
		buf.b = nil
	}
}

// Len returns the total number of bytes held, including any already
// logically consumed prefix — callers track their own start offset.
func (buf *Buffer) Len() int {
	return len(buf.b.B)
}

// Bytes returns the full backing slice. Callers must not retain it across a
// mutating call.
func (buf *Buffer) Bytes() []byte {
	return buf.b.B
}

// Append copies p onto the end of the buffer.
func (buf *Buffer) Append(p []byte) {
	buf.b.B = append(buf.b.B, p...)
}

// DeletePrefix removes the first n bytes, shifting the remainder down.
func (buf *Buffer) DeletePrefix(n int) {
	if n <= 0 {
		return
	}
	if n >= len(buf.b.B) {
		buf.b.B = buf.b.B[:0]
		return
	}
	copy(buf.b.B, buf.b.B[n:])
	buf.b.B = buf.b.B[:len(buf.b.B)-n]
}

// Copy returns a standalone copy of buf[from:to].
func (buf *Buffer) Copy(from, to int) []byte {
	out := make([]byte, to-from)
	copy(out, buf.b.B[from:to])
	return out
}

// IndexByte returns the position of the first occurrence of c at or after
// from, or -1 if not present.
func (buf *Buffer) IndexByte(from int, c byte) int {
	if from >= len(buf.b.B) {
		return -1
	}
	rel := indexByte(buf.b.B[from:], c)
	if rel < 0 {
		return -1
	}
	return from + rel
}
