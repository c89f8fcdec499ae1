package interposer

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// connectTimeout and connectRetry bound the dial loop: retry
// with a 10ms sleep between attempts while the peer is absent or refusing,
// fail after 250ms total.
const (
	connectRetry   = 10 * time.Millisecond
	connectTimeout = 250 * time.Millisecond
)

// wordSize is the local pointer size in bytes, sent to the server as the
// final step of the handshake.
const wordSize = unsafe.Sizeof(uintptr(0))

// connect implements the socket client: dial the slot's
// Unix socket with bounded retry, perform the configuration handshake, and
// bind the resulting fd into the slot.
func connect(s *slot) (int, error) {
	fd, err := dialWithRetry(s.spec.SocketPath)
	if err != nil {
		return -1, fmt.Errorf("interposer: connect %s: %w", s.spec.SocketPath, err)
	}

	cfg, err := handshake(fd)
	if err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("interposer: handshake %s: %w", s.spec.SocketPath, err)
	}

	s.cfg = cfg
	s.corr = nil // opaque, returned as all-zero bytes until JSIOCSCORR stores one
	return fd, nil
}

// dialWithRetry creates a stream Unix-domain socket and retries connect()
// while the peer is missing or refusing, bounded by connectTimeout.
func dialWithRetry(path string) (int, error) {
	deadline := time.Now().Add(connectTimeout)
	var lastErr error
	for {
		fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, fmt.Errorf("socket: %w", err)
		}

		addr := &unix.SockaddrUnix{Name: path}
		err = unix.Connect(fd, addr)
		if err == nil {
			return fd, nil
		}
		unix.Close(fd)

		lastErr = err
		if err != unix.ENOENT && err != unix.ECONNREFUSED {
			return -1, err
		}
		if time.Now().After(deadline) {
			return -1, fmt.Errorf("timed out after %s: %w", connectTimeout, lastErr)
		}
		time.Sleep(connectRetry)
	}
}

// handshake reads exactly sizeof(config_record) bytes,
// then writes the one-byte word-size indicator (step 2). The fd is made
// blocking for the duration of the read if it started non-blocking, then
// restored, per §4.D step 3.
func handshake(fd int) (wire.Config, error) {
	wasNonblock, err := isNonblocking(fd)
	if err != nil {
		return wire.Config{}, err
	}
	if wasNonblock {
		if err := unix.SetNonblock(fd, false); err != nil {
			return wire.Config{}, err
		}
	}

	buf := make([]byte, wire.ConfigSize)
	if err := readFull(fd, buf); err != nil {
		return wire.Config{}, err
	}

	if wasNonblock {
		if err := unix.SetNonblock(fd, true); err != nil {
			return wire.Config{}, err
		}
	}

	cfg, err := wire.UnmarshalConfig(buf)
	if err != nil {
		return wire.Config{}, err
	}

	if _, err := unix.Write(fd, []byte{byte(wordSize)}); err != nil {
		return wire.Config{}, fmt.Errorf("write word size: %w", err)
	}
	return cfg, nil
}

// readFull repeats Read until buf is full, EOF, or a real error.
func readFull(fd int, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := unix.Read(fd, buf[total:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		if n == 0 {
			return fmt.Errorf("eof after %d of %d bytes", total, len(buf))
		}
		total += n
	}
	return nil
}

// isNonblocking reports whether fd currently has O_NONBLOCK set.
func isNonblocking(fd int) (bool, error) {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return false, err
	}
	return flags&unix.O_NONBLOCK != 0, nil
}

// setNonblock idempotently applies O_NONBLOCK, used both for the host's
// own open()-time request and for epoll_ctl's forced non-blocking rule
// after the handshake completes.
func setNonblock(fd int, nonblock bool) error {
	return unix.SetNonblock(fd, nonblock)
}
