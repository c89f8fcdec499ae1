package interposer

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// fakeReal gives tests a controllable stand-in for the dlsym-resolved libc
// entry points, so dispatch logic can be exercised without a real dynamic
// linker driving it.
func fakeReal(t *testing.T) RealFuncs {
	t.Helper()
	return RealFuncs{
		Open: func(path string, flags int, mode uint32) (int, error) {
			return -1, unix.ENOENT
		},
		Close: func(fd int) error { return unix.EBADF },
		Read: func(fd int, buf []byte) (int, error) {
			return -1, unix.EBADF
		},
		Ioctl: func(fd int, request uint, arg uintptr) (int, error) {
			return -1, unix.ENOTTY
		},
		EpollCtl: func(epfd, op, fd int, event *unix.EpollEvent) error {
			return nil
		},
	}
}

func newTestDispatcher(t *testing.T, n int) *Dispatcher {
	t.Helper()
	return &Dispatcher{
		Table:    newTable(n),
		Real:     fakeReal(t),
		WordSize: int(wordSize),
	}
}

// serveConfig starts a one-shot unix listener at path that writes cfg on
// accept and then blocks, returning the listener for cleanup.
func serveConfig(t *testing.T, path string, cfg wire.Config) net.Listener {
	t.Helper()
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write(wire.MarshalConfig(cfg))
		var b [1]byte
		_, _ = conn.Read(b[:])
	}()
	return ln
}

func TestDispatcher_Open_UnmanagedPathDelegates(t *testing.T) {
	d := newTestDispatcher(t, 1)
	_, err := d.Open("/etc/hostname", 0, 0)
	assert.ErrorIs(t, err, unix.ENOENT)
}

func TestDispatcher_Open_ManagedPathConnectsOnce(t *testing.T) {
	d := newTestDispatcher(t, 1)
	spec := d.Table.byPath[jsDevicePath(0)].spec
	spec.SocketPath = filepath.Join(t.TempDir(), "js0.sock")
	d.Table.byPath[jsDevicePath(0)].spec = spec

	ln := serveConfig(t, spec.SocketPath, wire.Config{Name: "x", NumBtns: 1, NumAxes: 1})
	defer ln.Close()

	fd1, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)
	defer unix.Close(fd1)

	fd2, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, fd1, fd2, "already-open slot returns the existing descriptor, no reconnect")
}

func TestDispatcher_CloseManagedFD(t *testing.T) {
	d := newTestDispatcher(t, 1)
	spec := d.Table.byPath[jsDevicePath(0)].spec
	spec.SocketPath = filepath.Join(t.TempDir(), "js0.sock")
	d.Table.byPath[jsDevicePath(0)].spec = spec
	ln := serveConfig(t, spec.SocketPath, wire.Config{Name: "x"})
	defer ln.Close()

	fd, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)

	require.NoError(t, d.Close(fd))
	assert.Nil(t, d.Table.forFD(fd), "slot released after close")

	// Reopen gets a fresh fd and a fresh handshake.
	ln2 := serveConfig(t, spec.SocketPath, wire.Config{Name: "x"})
	defer ln2.Close()
}

func TestDispatcher_Close_UnmanagedDelegates(t *testing.T) {
	d := newTestDispatcher(t, 1)
	err := d.Close(999)
	assert.ErrorIs(t, err, unix.EBADF)
}

func TestDispatcher_Read_UnmanagedDelegates(t *testing.T) {
	d := newTestDispatcher(t, 1)
	_, err := d.Read(999, make([]byte, 8))
	assert.ErrorIs(t, err, unix.EBADF)
}

func TestDispatcher_Read_TooSmallBufferFails(t *testing.T) {
	d := newTestDispatcher(t, 1)
	spec := d.Table.byPath[jsDevicePath(0)].spec
	spec.SocketPath = filepath.Join(t.TempDir(), "js0.sock")
	d.Table.byPath[jsDevicePath(0)].spec = spec
	ln := serveConfig(t, spec.SocketPath, wire.Config{Name: "x"})
	defer ln.Close()

	fd, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)
	defer unix.Close(fd)

	_, err = d.Read(fd, make([]byte, 2))
	var ie *ioctlError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, unix.EINVAL, ie.Errno())
}

func TestDispatcher_Read_DeliversJSEvent(t *testing.T) {
	d := newTestDispatcher(t, 1)
	spec := d.Table.byPath[jsDevicePath(0)].spec
	spec.SocketPath = filepath.Join(t.TempDir(), "js0.sock")
	d.Table.byPath[jsDevicePath(0)].spec = spec

	ln, err := net.Listen("unix", spec.SocketPath)
	require.NoError(t, err)
	defer ln.Close()

	connCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write(wire.MarshalConfig(wire.Config{Name: "x"}))
		var b [1]byte
		_, _ = conn.Read(b[:])
		connCh <- conn
	}()

	fd, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)
	defer unix.Close(fd)

	conn := <-connCh
	defer conn.Close()
	want := wire.JSEvent{Time: 42, Value: -500, Type: 1, Number: 2}
	_, err = conn.Write(wire.MarshalJSEvent(want))
	require.NoError(t, err)

	buf := make([]byte, wire.JSEventSize)
	n, err := d.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, wire.JSEventSize, n)

	got, err := wire.UnmarshalJSEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDispatcher_Ioctl_UnmanagedDelegates(t *testing.T) {
	d := newTestDispatcher(t, 1)
	_, err := d.Ioctl(999, 0, 0)
	assert.ErrorIs(t, err, unix.ENOTTY)
}

func TestDispatcher_EpollCtl_ForcesNonblockOnManagedFD(t *testing.T) {
	d := newTestDispatcher(t, 1)
	spec := d.Table.byPath[jsDevicePath(0)].spec
	spec.SocketPath = filepath.Join(t.TempDir(), "js0.sock")
	d.Table.byPath[jsDevicePath(0)].spec = spec
	ln := serveConfig(t, spec.SocketPath, wire.Config{Name: "x"})
	defer ln.Close()

	fd, err := d.Open(jsDevicePath(0), 0, 0)
	require.NoError(t, err)
	defer unix.Close(fd)

	require.NoError(t, d.EpollCtl(3, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{}))

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)
}
