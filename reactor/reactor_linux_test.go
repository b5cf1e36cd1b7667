//go:build linux

package reactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/reactor"
	"github.com/kienpl96/kannel/threads"
)

func TestRegisterFiresOnReadable(t *testing.T) {
	fs, err := reactor.New()
	require.NoError(t, err)
	defer fs.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	fired := make(chan threads.Interest, 1)
	err = fs.Register(fds[0], threads.PollIn, func(fd int, revents threads.Interest, data any) {
		fired <- revents
	}, nil)
	require.NoError(t, err)

	_, err = unix.Write(fds[1], []byte("hi"))
	require.NoError(t, err)

	select {
	case revents := <-fired:
		require.NotZero(t, revents&threads.PollIn)
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire")
	}

	require.NoError(t, fs.Unregister(fds[0]))
}

func TestDoubleRegisterFails(t *testing.T) {
	fs, err := reactor.New()
	require.NoError(t, err)
	defer fs.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	require.NoError(t, fs.Register(fds[0], threads.PollIn, func(int, threads.Interest, any) {}, nil))
	err = fs.Register(fds[0], threads.PollIn, func(int, threads.Interest, any) {}, nil)
	require.Error(t, err)
}

func TestUnregisterQuiescesCallback(t *testing.T) {
	fs, err := reactor.New()
	require.NoError(t, err)
	defer fs.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	inCallback := make(chan struct{})
	release := make(chan struct{})
	err = fs.Register(fds[0], threads.PollIn, func(fd int, revents threads.Interest, data any) {
		close(inCallback)
		<-release
	}, nil)
	require.NoError(t, err)

	_, err = unix.Write(fds[1], []byte("x"))
	require.NoError(t, err)
	<-inCallback

	done := make(chan struct{})
	go func() {
		fs.Unregister(fds[0])
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Unregister returned before callback finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Unregister did not return after callback finished")
	}
}
