// Command libselkiesinput builds the device I/O interposer library: a
// -buildmode=c-shared object that LD_PRELOAD's ahead of libc and overrides
// open/open64/close/read/ioctl/epoll_ctl so a host process sees per-slot
// Unix sockets wherever it expects the kernel joystick (/dev/input/jsX) or
// evdev (/dev/input/eventY) nodes named in the identity table.
//
// All decision logic (is this path/fd managed? what does the emulated
// ioctl return?) lives in internal/interposer so it is unit-testable
// without a C toolchain; this file is only the cgo boundary: variadic-arg
// unpacking for open()/ioctl(), dlsym(RTLD_NEXT, ...) resolution of the
// real libc symbols, and errno/return-value marshaling.
package main

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <errno.h>
#include <fcntl.h>
#include <stdarg.h>
#include <stdlib.h>
#include <sys/epoll.h>
#include <sys/ioctl.h>
#include <sys/types.h>
#include <unistd.h>

// Real libc entry points are typed with their most common fixed arity
// rather than their true variadic C prototypes: cgo cannot call a
// variadic function through a function pointer, but the System V AMD64
// ABI passes every scalar argument in a register regardless of whether
// the callee treats it as variadic, so calling through a fixed-arity
// pointer with the same leading arguments is exactly what glibc's own
// internal aliasing of open/open64/__open does.
typedef int (*open_fn)(const char *, int, unsigned int);
typedef int (*close_fn)(int);
typedef long (*read_fn)(int, void *, unsigned long);
typedef int (*ioctl_fn)(int, unsigned long, void *);
typedef int (*epoll_ctl_fn)(int, int, int, struct epoll_event *);

static int call_real_open(void *fn, const char *path, int flags, unsigned int mode) {
	if (!fn) { errno = EFAULT; return -1; }
	return ((open_fn)fn)(path, flags, mode);
}
static int call_real_close(void *fn, int fd) {
	if (!fn) { errno = EFAULT; return -1; }
	return ((close_fn)fn)(fd);
}
static long call_real_read(void *fn, int fd, void *buf, unsigned long count) {
	if (!fn) { errno = EFAULT; return -1; }
	return ((read_fn)fn)(fd, buf, count);
}
static int call_real_ioctl(void *fn, int fd, unsigned long request, void *arg) {
	if (!fn) { errno = EFAULT; return -1; }
	return ((ioctl_fn)fn)(fd, request, arg);
}
static int call_real_epoll_ctl(void *fn, int epfd, int op, int fd, struct epoll_event *ev) {
	if (!fn) { errno = EFAULT; return -1; }
	return ((epoll_ctl_fn)fn)(epfd, op, fd, ev);
}

static void *resolve_next(const char *name) {
	return dlsym(RTLD_NEXT, name);
}

// errno is a function-like macro over __errno_location() on glibc, not a
// plain symbol, so cgo cannot assign through "C.errno" directly; this
// trampoline is the portable way to set it from Go.
static void set_errno(int e) {
	errno = e;
}

extern int goOpen(char *path, int flags, unsigned int mode, int hasMode);
extern int goOpen64(char *path, int flags, unsigned int mode, int hasMode);
extern int goClose(int fd);
extern long goRead(int fd, void *buf, unsigned long count);
extern int goIoctl(int fd, unsigned long request, void *arg);
extern int goEpollCtl(int epfd, int op, int fd, struct epoll_event *event);

int open(const char *path, int flags, ...) {
	unsigned int mode = 0;
	int hasMode = 0;
	if (flags & O_CREAT) {
		va_list ap;
		va_start(ap, flags);
		mode = va_arg(ap, unsigned int);
		va_end(ap);
		hasMode = 1;
	}
	return goOpen((char *)path, flags, mode, hasMode);
}

int open64(const char *path, int flags, ...) {
	unsigned int mode = 0;
	int hasMode = 0;
	if (flags & O_CREAT) {
		va_list ap;
		va_start(ap, flags);
		mode = va_arg(ap, unsigned int);
		va_end(ap);
		hasMode = 1;
	}
	return goOpen64((char *)path, flags, mode, hasMode);
}

int close(int fd) {
	return goClose(fd);
}

ssize_t read(int fd, void *buf, size_t count) {
	return (ssize_t)goRead(fd, buf, (unsigned long)count);
}

int ioctl(int fd, unsigned long request, ...) {
	va_list ap;
	va_start(ap, request);
	void *arg = va_arg(ap, void *);
	va_end(ap);
	return goIoctl(fd, request, arg);
}

int epoll_ctl(int epfd, int op, int fd, struct epoll_event *event) {
	return goEpollCtl(epfd, op, fd, event);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/interposer"
	sklog "github.com/selkies-project/selkies-gamepad-interpose/internal/log"
)

var (
	logOnce sync.Once
	logf    func(format string, args ...any)
	rawLog  sklog.RawLogger

	// dispatch handles close/read/ioctl/epoll_ctl and the "open" entry
	// point; dispatchOpen64 shares its Table (the process-global slot
	// table, see internal/interposer.GlobalTable) but falls back to the
	// real open64 symbol instead of open for unmanaged paths.
	dispatch       *interposer.Dispatcher
	dispatchOpen64 *interposer.Dispatcher
)

func init() {
	logOnce.Do(func() {
		l, raw, _, err := sklog.OpenPreloaded()
		if err == nil {
			rawLog = raw
			logf = func(format string, args ...any) { l.Info(fmt.Sprintf(format, args...)) }
		}
	})

	openSym := resolveReal("open")
	open64Sym := resolveReal("open64")
	closeSym := resolveReal("close")
	readSym := resolveReal("read")
	ioctlSym := resolveReal("ioctl")
	epollCtlSym := resolveReal("epoll_ctl")

	dispatch = interposer.NewDispatcher(interposer.RealFuncs{
		Open:     realOpen(openSym),
		Close:    realClose(closeSym),
		Read:     realRead(readSym),
		Ioctl:    realIoctl(ioctlSym),
		EpollCtl: realEpollCtl(epollCtlSym),
	})
	dispatch.Log = logf

	dispatchOpen64 = interposer.NewDispatcher(interposer.RealFuncs{
		Open: realOpen(open64Sym),
	})
	dispatchOpen64.Log = logf
}

// resolveReal performs the dynamic-linker next-symbol lookup. A nil result
// is not fatal to the process (this library must not crash an unrelated
// host): it is carried forward and every call that would need it instead
// returns EFAULT, surfacing a symbol-loading failure as the interposed
// call returning -1 with EFAULT.
func resolveReal(name string) unsafe.Pointer {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	p := C.resolve_next(cname)
	if p == nil && logf != nil {
		logf("libselkiesinput: failed to resolve real %s via RTLD_NEXT", name)
	}
	return p
}

func errnoToErr(errno error) error {
	if e, ok := errno.(unix.Errno); ok {
		return e
	}
	return unix.EFAULT
}

func realOpen(sym unsafe.Pointer) func(path string, flags int, mode uint32) (int, error) {
	return func(path string, flags int, mode uint32) (int, error) {
		cpath := C.CString(path)
		defer C.free(unsafe.Pointer(cpath))
		ret, errno := C.call_real_open(sym, cpath, C.int(flags), C.uint(mode))
		if int(ret) < 0 {
			return -1, errnoToErr(errno)
		}
		return int(ret), nil
	}
}

func realClose(sym unsafe.Pointer) func(fd int) error {
	return func(fd int) error {
		ret, errno := C.call_real_close(sym, C.int(fd))
		if int(ret) < 0 {
			return errnoToErr(errno)
		}
		return nil
	}
}

func realRead(sym unsafe.Pointer) func(fd int, buf []byte) (int, error) {
	return func(fd int, buf []byte) (int, error) {
		var ptr unsafe.Pointer
		if len(buf) > 0 {
			ptr = unsafe.Pointer(&buf[0])
		}
		ret, errno := C.call_real_read(sym, C.int(fd), ptr, C.ulong(len(buf)))
		if int(ret) < 0 {
			return -1, errnoToErr(errno)
		}
		return int(ret), nil
	}
}

func realIoctl(sym unsafe.Pointer) func(fd int, request uint, arg uintptr) (int, error) {
	return func(fd int, request uint, arg uintptr) (int, error) {
		ret, errno := C.call_real_ioctl(sym, C.int(fd), C.ulong(request), unsafe.Pointer(arg))
		if int(ret) < 0 {
			return -1, errnoToErr(errno)
		}
		return int(ret), nil
	}
}

func realEpollCtl(sym unsafe.Pointer) func(epfd, op, fd int, event *unix.EpollEvent) error {
	return func(epfd, op, fd int, event *unix.EpollEvent) error {
		ret, errno := C.call_real_epoll_ctl(sym, C.int(epfd), C.int(op), C.int(fd), (*C.struct_epoll_event)(unsafe.Pointer(event)))
		if int(ret) < 0 {
			return errnoToErr(errno)
		}
		return nil
	}
}

//export goOpen
func goOpen(path *C.char, flags C.int, mode C.uint, hasMode C.int) C.int {
	m := uint32(0)
	if hasMode != 0 {
		m = uint32(mode)
	}
	fd, err := dispatch.Open(C.GoString(path), int(flags), m)
	if err != nil {
		return C.int(errnoOfOpen(err))
	}
	return C.int(fd)
}

//export goOpen64
func goOpen64(path *C.char, flags C.int, mode C.uint, hasMode C.int) C.int {
	m := uint32(0)
	if hasMode != 0 {
		m = uint32(mode)
	}
	fd, err := dispatchOpen64.Open(C.GoString(path), int(flags), m)
	if err != nil {
		return C.int(errnoOfOpen(err))
	}
	return C.int(fd)
}

//export goClose
func goClose(fd C.int) C.int {
	if err := dispatch.Close(int(fd)); err != nil {
		return C.int(errnoOf(err))
	}
	return 0
}

//export goRead
func goRead(fd C.int, buf unsafe.Pointer, count C.ulong) C.long {
	var b []byte
	if count > 0 {
		b = unsafe.Slice((*byte)(buf), int(count))
	}
	n, err := dispatch.Read(int(fd), b)
	if err != nil {
		setCErrno(err, unix.EIO)
		return -1
	}
	if rawLog != nil && n > 0 {
		rawLog.Log(false, b[:n])
	}
	return C.long(n)
}

//export goIoctl
func goIoctl(fd C.int, request C.ulong, arg unsafe.Pointer) C.int {
	n, err := dispatch.Ioctl(int(fd), uint(request), uintptr(arg))
	if err != nil {
		return C.int(errnoOf(err))
	}
	return C.int(n)
}

//export goEpollCtl
func goEpollCtl(epfd, op, fd C.int, event *C.struct_epoll_event) C.int {
	var ev *unix.EpollEvent
	if event != nil {
		ev = (*unix.EpollEvent)(unsafe.Pointer(event))
	}
	if err := dispatch.EpollCtl(int(epfd), int(op), int(fd), ev); err != nil {
		return C.int(errnoOf(err))
	}
	return 0
}

// errnoOf maps a Go-side error to the libc convention of returning -1 and
// leaving the condition in C's thread-local errno; callers of these
// //export functions return the -1 sentinel themselves, so errnoOf only
// needs to set the C errno as a side effect and report -1. The default
// covers ioctl/read/close paths, which always fail with an explicit
// unix.Errno or an ioctlError (see internal/interposer); ENOTTY matches
// an unhandled ioctl request returning the no-such-ioctl error.
func errnoOf(err error) int {
	setCErrno(err, unix.ENOTTY)
	return -1
}

// errnoOfOpen is errnoOf specialized for the connect/handshake failure
// path: an I/O or transport failure during connect/handshake surfaces via
// a failed open() returning -1 with EIO. The socket client wraps its
// failures with fmt.Errorf rather than an unix.Errno, so the default here
// is EIO instead of ENOTTY.
func errnoOfOpen(err error) int {
	setCErrno(err, unix.EIO)
	return -1
}

// errnoSetter lets tests observe what errno would have been set without
// linking against cgo machinery.
var errnoSetter = func(errno unix.Errno) { C.set_errno(C.int(errno)) }

func setCErrno(err error, deflt unix.Errno) {
	type errnoer interface{ Errno() unix.Errno }
	if e, ok := err.(errnoer); ok {
		errnoSetter(e.Errno())
		return
	}
	if e, ok := err.(unix.Errno); ok {
		errnoSetter(e)
		return
	}
	errnoSetter(deflt)
}
