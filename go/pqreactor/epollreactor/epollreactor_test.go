package epollreactor

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	go r.Run()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPostRunsOnLoop(t *testing.T) {
	r := newRunningReactor(t)

	done := make(chan struct{})
	r.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post callback never ran")
	}
}

func TestAfterFuncFires(t *testing.T) {
	r := newRunningReactor(t)

	done := make(chan struct{})
	r.AfterFunc(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc callback never fired")
	}
}

func TestAfterFuncStopPreventsCallback(t *testing.T) {
	r := newRunningReactor(t)

	fired := make(chan struct{})
	timer := r.AfterFunc(50*time.Millisecond, func() { close(fired) })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop should report already-stopped")

	select {
	case <-fired:
		t.Fatal("callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWaitReadableFiresOnData(t *testing.T) {
	r := newRunningReactor(t)

	// net.Pipe is not backed by a real file descriptor, so exercise
	// readiness against a TCP loopback connection instead.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	acceptedCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptedCh <- c
		}
	}()

	dialer, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { dialer.Close() })

	accepted := <-acceptedCh
	t.Cleanup(func() { accepted.Close() })

	readable := make(chan error, 1)
	r.WaitReadable(accepted, func(err error) { readable <- err })

	_, err = dialer.Write([]byte("hi"))
	require.NoError(t, err)

	select {
	case err := <-readable:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitReadable never fired")
	}
}
