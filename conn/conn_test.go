package conn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/conn"
)

func socketpair(t *testing.T) (*conn.Connection, *conn.Connection) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	a, err := conn.WrapFD(fds[0])
	require.NoError(t, err)
	b, err := conn.WrapFD(fds[1])
	require.NoError(t, err)

	t.Cleanup(func() {
		a.Destroy()
		b.Destroy()
	})
	return a, b
}

func TestWriteReadFixedRoundTrip(t *testing.T) {
	a, b := socketpair(t)

	status, err := a.Write([]byte("HELLO"))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	require.Eventually(t, func() bool {
		return b.ReadFixed(5) != nil
	}, time.Second, 5*time.Millisecond)
}

func TestWriteWithLengthReadWithLengthRoundTrip(t *testing.T) {
	a, b := socketpair(t)

	status, err := a.WriteWithLength([]byte("HELLO"))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	require.Nil(t, b.ReadWithLength())

	var got []byte
	require.Eventually(t, func() bool {
		got = b.ReadWithLength()
		return got != nil
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []byte("HELLO"), got)
}

func TestReadLineTwiceThenNil(t *testing.T) {
	a, b := socketpair(t)

	_, err := a.Write([]byte("line1\nline2\r\nline3"))
	require.NoError(t, err)

	var first []byte
	require.Eventually(t, func() bool {
		first = b.ReadLine()
		return first != nil
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "line1", string(first))

	second := b.ReadLine()
	require.Equal(t, "line2", string(second))

	require.Nil(t, b.ReadLine())
}

func TestReadPacketMarkers(t *testing.T) {
	a, b := socketpair(t)

	_, err := a.Write([]byte("junk<START>payload<END>trailing"))
	require.NoError(t, err)

	var pkt []byte
	require.Eventually(t, func() bool {
		pkt = b.ReadPacket('<', '>')
		return pkt != nil
	}, time.Second, 5*time.Millisecond)
	// scans for the first '<' (in "<START>") then the first '>' after it
	require.Equal(t, "<START>", string(pkt))
}

func TestNegativeLengthPrefixDiscardsAndRetries(t *testing.T) {
	a, b := socketpair(t)

	corrupt := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	valid := append([]byte{0, 0, 0, 3}, []byte("abc")...)
	_, err := a.Write(append(corrupt, valid...))
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		got = b.ReadWithLength()
		return got != nil
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "abc", string(got))
}

func TestOutputBufferingThresholdDefersWrite(t *testing.T) {
	a, _ := socketpair(t)

	_, err := a.SetOutputBuffering(1024)
	require.NoError(t, err)

	status, err := a.Write([]byte("small"))
	require.NoError(t, err)
	require.Equal(t, 1, status)
	require.Equal(t, 5, a.OutbufLen())

	status, err = a.SetOutputBuffering(0)
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Equal(t, 0, a.OutbufLen())
}

func TestFlushDrainsBufferedOutput(t *testing.T) {
	a, b := socketpair(t)

	_, err := a.SetOutputBuffering(1 << 20)
	require.NoError(t, err)
	_, err = a.Write([]byte("buffered"))
	require.NoError(t, err)
	require.Equal(t, 8, a.OutbufLen())

	status, err := a.Flush()
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Equal(t, 0, a.OutbufLen())

	require.Eventually(t, func() bool {
		return b.ReadFixed(8) != nil
	}, time.Second, 5*time.Millisecond)
}

func TestClaimPanicsOnDoubleClaim(t *testing.T) {
	a, _ := socketpair(t)
	a.Claim()
	require.Panics(t, func() { a.Claim() })
}

func TestEofOnPeerClose(t *testing.T) {
	a, b := socketpair(t)
	a.Destroy()

	require.Eventually(t, func() bool {
		return b.ReadEverything() == nil && b.Eof()
	}, time.Second, 5*time.Millisecond)
}
