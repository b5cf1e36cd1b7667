// File: conn/dial.go
// OpenTCP constructor, grounded on gwlib/conn.c's conn_open_tcp and on
// momentics-hioload-ws/internal/transport/transport_linux.go's raw
// golang.org/x/sys/unix socket setup.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/api"
)

// OpenTCP performs a blocking connect to host:port — permissible per
// spec.md §9's re-architecture guidance, which flags non-blocking connect
// as a future refinement — then switches the resulting fd to non-blocking
// and wraps it. dialTimeout <= 0 means no timeout; a timed-out attempt
// closes the socket and returns api.ErrOperationTimeout, leaking the
// blocked connect(2) call to the kernel rather than the caller.
func OpenTCP(host string, port int, dialTimeout time.Duration) (*Connection, error) {
	addr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "resolve address").WithContext("errno", err.Error())
	}
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "not an IPv4 address")
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, api.NewError(api.ErrCodeInternal, "socket").WithContext("errno", err.Error())
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip4)

	connErrCh := make(chan error, 1)
	go func() { connErrCh <- unix.Connect(fd, sa) }()

	if dialTimeout > 0 {
		select {
		case err = <-connErrCh:
		case <-time.After(dialTimeout):
			unix.Close(fd)
			return nil, api.ErrOperationTimeout
		}
	} else {
		err = <-connErrCh
	}
	if err != nil {
		unix.Close(fd)
		return nil, api.NewError(api.ErrCodeInternal, "connect").WithContext("errno", err.Error())
	}

	return WrapFD(fd)
}
