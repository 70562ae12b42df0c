// Package epollreactor implements pqreactor.Reactor on Linux using epoll,
// mirroring the platform-specific reactor backend the original asio-based
// implementation this library is modeled on also relies on. A single
// goroutine owns the epoll instance; every readiness callback, every posted
// function, and every timer fires on that one goroutine, so pqreactor's
// state machines never need to synchronize against each other. The one
// exception is a wait whose registration fails: its callback receives the
// error synchronously, on the goroutine that called WaitReadable or
// WaitWritable.
package epollreactor

import (
	"container/heap"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pqreactor/pqreactor/go/pqreactor"
)

// Reactor is a Linux epoll-backed pqreactor.Reactor. Create one with New and
// call Run in its own goroutine; call Close to stop it and release the
// epoll and wake file descriptors.
type Reactor struct {
	epfd     int
	wakeR    int
	wakeW    int
	closed   chan struct{}
	closeOne sync.Once

	mu      sync.Mutex
	waiters map[int]*fdWaiter
	tasks   []func()
	timers  timerHeap
}

type fdWaiter struct {
	fd    int
	read  func(error)
	write func(error)
}

// New creates a Reactor. Callers must call Run (typically in a dedicated
// goroutine) before WaitReadable/WaitWritable/Post/AfterFunc callbacks will
// ever fire.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epollreactor: epoll_create1: %w", err)
	}
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("epollreactor: pipe2: %w", err)
	}
	r := &Reactor{
		epfd:    epfd,
		wakeR:   fds[0],
		wakeW:   fds[1],
		closed:  make(chan struct{}),
		waiters: make(map[int]*fdWaiter),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, r.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(r.wakeR),
	}); err != nil {
		r.closeFDs()
		return nil, fmt.Errorf("epollreactor: registering wake pipe: %w", err)
	}
	return r, nil
}

var _ pqreactor.Reactor = (*Reactor)(nil)

// Close stops Run and releases the reactor's file descriptors. It is safe
// to call more than once.
func (r *Reactor) Close() error {
	r.closeOne.Do(func() {
		close(r.closed)
		r.wake()
	})
	return nil
}

func (r *Reactor) closeFDs() {
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	unix.Close(r.epfd)
}

func (r *Reactor) wake() {
	var b [1]byte
	_, _ = unix.Write(r.wakeW, b[:])
}

// Run drives the epoll loop until Close is called. It blocks the calling
// goroutine.
func (r *Reactor) Run() {
	defer r.closeFDs()
	events := make([]unix.EpollEvent, 64)

	for {
		select {
		case <-r.closed:
			return
		default:
		}

		timeout := r.nextTimeoutMillis()
		n, err := unix.EpollWait(r.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == r.wakeR {
				r.drainWake()
				continue
			}
			r.dispatch(fd, events[i].Events)
		}

		r.runDueTimers()
		r.runTasks()
	}
}

func (r *Reactor) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(r.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (r *Reactor) dispatch(fd int, mask uint32) {
	r.mu.Lock()
	w := r.waiters[fd]
	if w == nil {
		r.mu.Unlock()
		return
	}
	var readCB, writeCB func(error)
	if mask&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		readCB, w.read = w.read, nil
	}
	if mask&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		writeCB, w.write = w.write, nil
	}
	if w.read == nil && w.write == nil {
		delete(r.waiters, fd)
		unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	} else {
		r.rearmLocked(w)
	}
	r.mu.Unlock()

	var cbErr error
	if mask&unix.EPOLLERR != 0 {
		cbErr = fmt.Errorf("epollreactor: EPOLLERR on fd %d", fd)
	}
	if readCB != nil {
		readCB(cbErr)
	}
	if writeCB != nil {
		writeCB(cbErr)
	}
}

func (r *Reactor) rearmLocked(w *fdWaiter) {
	var mask uint32
	if w.read != nil {
		mask |= unix.EPOLLIN
	}
	if w.write != nil {
		mask |= unix.EPOLLOUT
	}
	unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, w.fd, &unix.EpollEvent{
		Events: mask,
		Fd:     int32(w.fd),
	})
}

// WaitReadable implements pqreactor.Reactor.
func (r *Reactor) WaitReadable(conn net.Conn, cb func(error)) {
	r.waitFor(conn, cb, nil)
}

// WaitWritable implements pqreactor.Reactor.
func (r *Reactor) WaitWritable(conn net.Conn, cb func(error)) {
	r.waitFor(conn, nil, cb)
}

func (r *Reactor) waitFor(conn net.Conn, readCB, writeCB func(error)) {
	fd, err := socketFD(conn)
	if err != nil {
		if readCB != nil {
			readCB(err)
		}
		if writeCB != nil {
			writeCB(err)
		}
		return
	}

	r.mu.Lock()
	w, exists := r.waiters[fd]
	if !exists {
		w = &fdWaiter{fd: fd}
		r.waiters[fd] = w
	}
	if readCB != nil {
		w.read = readCB
	}
	if writeCB != nil {
		w.write = writeCB
	}
	mask := uint32(0)
	if w.read != nil {
		mask |= unix.EPOLLIN
	}
	if w.write != nil {
		mask |= unix.EPOLLOUT
	}
	op := unix.EPOLL_CTL_MOD
	if !exists {
		op = unix.EPOLL_CTL_ADD
	}
	err = unix.EpollCtl(r.epfd, op, fd, &unix.EpollEvent{Events: mask, Fd: int32(fd)})
	r.mu.Unlock()

	if err != nil {
		if readCB != nil {
			readCB(fmt.Errorf("epollreactor: epoll_ctl: %w", err))
		}
		if writeCB != nil {
			writeCB(fmt.Errorf("epollreactor: epoll_ctl: %w", err))
		}
	}
}

// Post implements pqreactor.Reactor.
func (r *Reactor) Post(fn func()) {
	r.mu.Lock()
	r.tasks = append(r.tasks, fn)
	r.mu.Unlock()
	r.wake()
}

func (r *Reactor) runTasks() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}

// AfterFunc implements pqreactor.Reactor.
func (r *Reactor) AfterFunc(d time.Duration, fn func()) pqreactor.Timer {
	t := &timerEntry{deadline: time.Now().Add(d), fn: fn}
	r.mu.Lock()
	heap.Push(&r.timers, t)
	r.mu.Unlock()
	r.wake()
	return t
}

func (r *Reactor) nextTimeoutMillis() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tasks) > 0 {
		return 0
	}
	if r.timers.Len() == 0 {
		return -1
	}
	d := time.Until(r.timers[0].deadline)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > 1<<30 {
		return 1 << 30
	}
	return int(ms)
}

func (r *Reactor) runDueTimers() {
	now := time.Now()
	for {
		r.mu.Lock()
		if r.timers.Len() == 0 || r.timers[0].deadline.After(now) {
			r.mu.Unlock()
			return
		}
		t := heap.Pop(&r.timers).(*timerEntry)
		r.mu.Unlock()

		// Stop doubles as the fire claim: marking the entry here makes a
		// later Stop report false, and a timer already stopped is skipped.
		if t.Stop() {
			t.fn()
		}
	}
}

func socketFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("epollreactor: %T does not support SyscallConn", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	ctrlErr := raw.Control(func(rawFD uintptr) {
		fd = int(rawFD)
	})
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}
