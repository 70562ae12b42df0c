package libpq

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// DupSocket duplicates fd (as returned by Conn.Socket) and wraps the copy in
// a net.Conn so a Reactor can register readiness callbacks on it without
// ever touching the descriptor libpq itself owns. libpq closes its own fd on
// Finish; the duplicate is independently owned and must be closed by the
// caller (net.Conn.Close), exactly once, when the reactor is done with it.
func DupSocket(fd int) (net.Conn, error) {
	if fd < 0 {
		return nil, fmt.Errorf("libpq: invalid socket %d", fd)
	}

	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("libpq: dup socket: %w", err)
	}

	if err := unix.SetNonblock(dup, true); err != nil {
		unix.Close(dup)
		return nil, fmt.Errorf("libpq: set duplicated socket non-blocking: %w", err)
	}

	file := os.NewFile(uintptr(dup), "pqreactor-libpq-socket")
	conn, err := net.FileConn(file)
	// net.FileConn dup()s file internally and keeps its own reference; the
	// os.File wrapper must be closed regardless of outcome.
	closeErr := file.Close()
	if err != nil {
		return nil, fmt.Errorf("libpq: wrap duplicated socket: %w", err)
	}
	if closeErr != nil {
		conn.Close()
		return nil, fmt.Errorf("libpq: close duplicated socket file handle: %w", closeErr)
	}
	return conn, nil
}
