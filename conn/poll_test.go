//go:build linux

package conn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/conn"
	"github.com/kienpl96/kannel/reactor"
)

func TestRegisterDeliversChunkedWritesInOrder(t *testing.T) {
	fs, err := reactor.New()
	require.NoError(t, err)
	defer fs.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	a, err := conn.WrapFD(fds[0])
	require.NoError(t, err)
	defer a.Destroy()
	b, err := conn.WrapFD(fds[1])
	require.NoError(t, err)
	defer b.Destroy()

	var log []byte
	done := make(chan struct{})
	err = b.Register(fs, func(c *conn.Connection, _ any) {
		chunk := c.ReadEverything()
		if chunk == nil {
			return
		}
		log = append(log, chunk...)
		if len(log) >= 100 {
			close(done)
		}
	}, nil)
	require.NoError(t, err)
	defer b.Unregister()

	want := make([]byte, 100)
	for i := range want {
		want[i] = byte(i)
	}
	for i := 0; i < 10; i++ {
		_, err := a.Write(want[i*10 : i*10+10])
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive all 100 bytes")
	}
	require.Equal(t, want, log)
}

func TestRegisterToDifferentFDSetFails(t *testing.T) {
	fs1, err := reactor.New()
	require.NoError(t, err)
	defer fs1.Close()
	fs2, err := reactor.New()
	require.NoError(t, err)
	defer fs2.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, err := conn.WrapFD(fds[0])
	require.NoError(t, err)
	defer a.Destroy()

	require.NoError(t, a.Register(fs1, func(*conn.Connection, any) {}, nil))
	err = a.Register(fs2, func(*conn.Connection, any) {}, nil)
	require.Error(t, err)
	require.NoError(t, a.Unregister())
}
