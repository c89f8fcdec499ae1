package interposer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RealFuncs bundles the libc entry points the cgo shim resolves via
// dlsym(RTLD_NEXT, ...); Dispatcher calls through these instead of the
// syscall package directly so tests can substitute fakes without a real
// dynamic linker. The shim's real implementation wires these to the actual
// resolved C function pointers.
type RealFuncs struct {
	Open     func(path string, flags int, mode uint32) (int, error)
	Close    func(fd int) error
	Read     func(fd int, buf []byte) (int, error)
	Ioctl    func(fd int, request uint, arg uintptr) (int, error)
	EpollCtl func(epfd, op, fd int, event *unix.EpollEvent) error
}

// Dispatcher is the call interceptor: it owns
// the managed-path table and the resolved real libc functions, and decides
// per-call whether a path or fd is one this library emulates.
type Dispatcher struct {
	Table *Table
	Real  RealFuncs
	// WordSize is the platform's input_event layout selector (4 or 8 byte
	// timeval fields); defaults to the running process's pointer size.
	WordSize int
	// Log, if non-nil, receives a formatted line per managed I/O event for
	// the append-only debug log.
	Log func(format string, args ...any)
}

// NewDispatcher builds a Dispatcher bound to the process-global managed
// path table and this process's native word size.
func NewDispatcher(real RealFuncs) *Dispatcher {
	return &Dispatcher{
		Table:    GlobalTable(),
		Real:     real,
		WordSize: int(wordSize),
	}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.Log != nil {
		d.Log(format, args...)
	}
}

// Open implements open()/open64(): a managed path that is
// free triggers the connect algorithm; already-open returns the existing
// descriptor; anything else delegates to the real symbol.
func (d *Dispatcher) Open(path string, flags int, mode uint32) (int, error) {
	s := d.Table.Lookup(path)
	if s == nil {
		return d.Real.Open(path, flags, mode)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	d.Table.mu.Lock()
	if s.fd >= 0 {
		fd := s.fd
		d.Table.mu.Unlock()
		return fd, nil
	}
	d.Table.mu.Unlock()

	fd, err := connect(s)
	if err != nil {
		return -1, err
	}
	d.Table.bind(s, fd)

	if flags&unix.O_NONBLOCK != 0 {
		if err := setNonblock(fd, true); err != nil {
			d.logf("interposer: open %s: set nonblock: %v", path, err)
		} else {
			d.Table.mu.Lock()
			s.nonblock = true
			d.Table.mu.Unlock()
		}
	}

	d.logf("interposer: open %s -> fd %d (%s)", path, fd, s.spec.Kind)
	return fd, nil
}

// Close implements close(): a managed fd is really closed
// and its slot released; anything else delegates.
func (d *Dispatcher) Close(fd int) error {
	s := d.Table.forFD(fd)
	if s == nil {
		return d.Real.Close(fd)
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	err := unix.Close(fd)
	d.Table.release(s)
	d.logf("interposer: close fd %d (%s)", fd, s.spec.Kind)
	return err
}

// Read implements read(): for a managed fd, issues exactly
// one receive of the wire record size for that slot's device kind.
func (d *Dispatcher) Read(fd int, buf []byte) (int, error) {
	s := d.Table.forFD(fd)
	if s == nil {
		return d.Real.Read(fd, buf)
	}

	size := s.eventSize(d.WordSize)
	if len(buf) < size {
		return -1, ioctlErrno(unix.EINVAL)
	}

	n, err := unix.Read(fd, buf[:size])
	if err != nil {
		if err == unix.EAGAIN {
			return -1, err
		}
		d.logf("interposer: read fd %d: %v", fd, err)
		return n, err
	}
	if n != size {
		d.logf("interposer: read fd %d: short read %d of %d bytes", fd, n, size)
	}
	return n, nil
}

// Ioctl implements ioctl(): managed fds dispatch to the
// ioctl emulation tables in ioctl_js.go/ioctl_evdev.go; others delegate.
func (d *Dispatcher) Ioctl(fd int, request uint, arg uintptr) (int, error) {
	s := d.Table.forFD(fd)
	if s == nil {
		return d.Real.Ioctl(fd, request, arg)
	}
	return dispatchIoctl(s, uint32(request), arg)
}

// EpollCtl implements epoll_ctl(): delegates to the real
// call, then idempotently forces O_NONBLOCK on a managed target fd for
// ADD/MOD operations, since epoll consumers assume non-blocking fds.
func (d *Dispatcher) EpollCtl(epfd, op, fd int, event *unix.EpollEvent) error {
	if err := d.Real.EpollCtl(epfd, op, fd, event); err != nil {
		return err
	}
	if op != unix.EPOLL_CTL_ADD && op != unix.EPOLL_CTL_MOD {
		return nil
	}
	s := d.Table.forFD(fd)
	if s == nil {
		return nil
	}
	if err := setNonblock(fd, true); err != nil {
		d.logf("interposer: epoll_ctl fd %d: set nonblock: %v", fd, err)
		return nil
	}
	d.Table.mu.Lock()
	s.nonblock = true
	d.Table.mu.Unlock()
	return nil
}

// ioctlError carries an errno-style failure across the emulation boundary,
// mirroring how wrapped Go errors elsewhere in this module carry a cause;
// the cgo shim is the only place that ever needs to pull the errno back out.
type ioctlError struct {
	errno unix.Errno
}

func (e *ioctlError) Error() string { return fmt.Sprintf("ioctl: %s", e.errno) }

func (e *ioctlError) Errno() unix.Errno { return e.errno }

func ioctlErrno(errno unix.Errno) error { return &ioctlError{errno: errno} }
