//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll-backed FDSet. Grounded on
// momentics-hioload-ws/reactor/epoll_reactor.go and reactor/reactor_linux.go,
// extended with per-registration mutexes so Unregister can quiesce an
// in-flight callback before returning, per spec.md §9's
// "unregister-during-callback race" guidance.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/kienpl96/kannel/api"
	"github.com/kienpl96/kannel/threads"
)

type registration struct {
	mu       sync.Mutex // held around cb invocation and around removal
	interest threads.Interest
	cb       Callback
	data     any
}

// EpollFDSet is a Linux epoll(7)-backed FDSet.
type EpollFDSet struct {
	epfd int

	mu   sync.Mutex
	regs map[int]*registration

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// New creates an epoll instance and starts its background wait loop.
func New() (*EpollFDSet, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	fs := &EpollFDSet{
		epfd:   epfd,
		regs:   make(map[int]*registration),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go fs.loop()
	return fs, nil
}

func toEpollEvents(i threads.Interest) uint32 {
	var e uint32
	if i&threads.PollIn != 0 {
		e |= unix.EPOLLIN
	}
	if i&threads.PollOut != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) threads.Interest {
	var i threads.Interest
	if e&unix.EPOLLIN != 0 {
		i |= threads.PollIn
	}
	if e&unix.EPOLLOUT != 0 {
		i |= threads.PollOut
	}
	if e&unix.EPOLLERR != 0 {
		i |= threads.PollErr
	}
	if e&unix.EPOLLHUP != 0 {
		i |= threads.PollHup
	}
	return i
}

// Register implements FDSet.
func (fs *EpollFDSet) Register(fd int, interest threads.Interest, cb Callback, data any) error {
	fs.mu.Lock()
	if _, exists := fs.regs[fd]; exists {
		fs.mu.Unlock()
		return fmt.Errorf("reactor: fd %d already registered: %w", fd, api.ErrAlreadyExists)
	}
	reg := &registration{interest: interest, cb: cb, data: data}
	fs.regs[fd] = reg
	fs.mu.Unlock()

	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(fs.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		fs.mu.Lock()
		delete(fs.regs, fd)
		fs.mu.Unlock()
		return fmt.Errorf("reactor: epoll_ctl add fd %d: %w", fd, err)
	}
	return nil
}

// Listen implements FDSet.
func (fs *EpollFDSet) Listen(fd int, mask, values threads.Interest) error {
	// interest is guarded by fs.mu, not reg.mu, so a callback (which runs
	// with reg.mu held) can update its own fd's interest.
	fs.mu.Lock()
	reg, ok := fs.regs[fd]
	if !ok {
		fs.mu.Unlock()
		return fmt.Errorf("reactor: fd %d not registered: %w", fd, api.ErrNotFound)
	}
	reg.interest = (reg.interest &^ mask) | (values & mask)
	newInterest := reg.interest
	fs.mu.Unlock()

	ev := unix.EpollEvent{Events: toEpollEvents(newInterest), Fd: int32(fd)}
	if err := unix.EpollCtl(fs.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl mod fd %d: %w", fd, err)
	}
	return nil
}

// Unregister implements FDSet, blocking until any in-flight callback for
// fd returns.
func (fs *EpollFDSet) Unregister(fd int) error {
	fs.mu.Lock()
	reg, ok := fs.regs[fd]
	if !ok {
		fs.mu.Unlock()
		return nil
	}
	delete(fs.regs, fd)
	fs.mu.Unlock()

	// Acquiring reg.mu waits out any callback currently running for fd,
	// quiescing it before we return.
	reg.mu.Lock()
	reg.mu.Unlock()

	_ = unix.EpollCtl(fs.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	return nil
}

// Close implements FDSet.
func (fs *EpollFDSet) Close() error {
	fs.closeOnce.Do(func() {
		close(fs.closed)
		<-fs.done
		_ = unix.Close(fs.epfd)
	})
	return nil
}

func (fs *EpollFDSet) loop() {
	defer close(fs.done)
	var events [128]unix.EpollEvent
	for {
		select {
		case <-fs.closed:
			return
		default:
		}

		n, err := unix.EpollWait(fs.epfd, events[:], 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			revents := fromEpollEvents(events[i].Events)

			fs.mu.Lock()
			reg, ok := fs.regs[fd]
			fs.mu.Unlock()
			if !ok {
				continue
			}

			reg.mu.Lock()
			if reg.cb != nil {
				reg.cb(fd, revents, reg.data)
			}
			reg.mu.Unlock()
		}
	}
}
