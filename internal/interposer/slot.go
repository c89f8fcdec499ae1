// Package interposer implements the socket client, call interceptor, and
// ioctl emulation components: the parts of
// the system that run inside an LD_PRELOAD'd host process and make a Unix
// socket look like a kernel joystick or evdev device node.
package interposer

import (
	"fmt"
	"sync"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/discovery"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// Kind distinguishes the wire-record shape a managed descriptor speaks.
type Kind int

const (
	KindJS Kind = iota
	KindEvent
)

func (k Kind) String() string {
	if k == KindJS {
		return "js"
	}
	return "event"
}

// DeviceSpec names one emulated device node and the socket path behind it.
type DeviceSpec struct {
	Kind       Kind
	Index      int
	DevicePath string
	SocketPath string
}

// jsDevicePath and friends mirror the standard /dev/input device paths.
func jsDevicePath(i int) string      { return fmt.Sprintf("/dev/input/js%d", i) }
func jsSocketPath(i int) string      { return fmt.Sprintf("/tmp/selkies_js%d.sock", i) }
func eventDevicePath(i int) string   { return fmt.Sprintf("/dev/input/event%d", 1000+i) }
func eventSocketPath(i int) string   { return fmt.Sprintf("/tmp/selkies_event%d.sock", 1000+i) }

// ManagedPaths returns the device-path -> socket-path table for N slots.
func ManagedPaths(n int) []DeviceSpec {
	specs := make([]DeviceSpec, 0, n*2)
	for i := 0; i < n; i++ {
		specs = append(specs,
			DeviceSpec{Kind: KindJS, Index: i, DevicePath: jsDevicePath(i), SocketPath: jsSocketPath(i)},
			DeviceSpec{Kind: KindEvent, Index: i, DevicePath: eventDevicePath(i), SocketPath: eventSocketPath(i)},
		)
	}
	return specs
}

// slot holds everything known about one open managed descriptor: its wire
// configuration from the handshake, an opaque joystick-correction blob, and
// the socket fd the host is meant to use directly for read()/close()/ioctl().
type slot struct {
	spec DeviceSpec

	// connMu serializes the whole open/connect/close sequence for this
	// slot, so two racing host threads calling open() on the same path
	// can't both run the connect algorithm.
	connMu sync.Mutex

	fd       int
	cfg      wire.Config
	corr     []byte
	nonblock bool
}

// eventSize returns the wire record size for this slot's device kind, used
// by read() to size its single receive call.
func (s *slot) eventSize(wordSize int) int {
	if s.spec.Kind == KindJS {
		return wire.JSEventSize
	}
	return wire.InputEventSize(wordSize)
}

// Table is the process-global registry of managed paths, fds, and slot
// state: the slot table and discovery table are
// both process-global, and slot creation/teardown on the same path is
// guarded against concurrent open/close.
type Table struct {
	mu     sync.Mutex
	n      int
	byPath map[string]*slot // device path -> slot
	byFD   map[int]*slot    // managed fd -> slot, for close/read/ioctl/epoll_ctl
}

var (
	globalOnce  sync.Once
	globalTable *Table
)

// GlobalTable returns the process-wide managed-path table, building it
// exactly once from identity.NumPadsDefault-sized env configuration the
// first time any interceptor touches it.
func GlobalTable() *Table {
	globalOnce.Do(func() {
		globalTable = newTable(discovery.NumPads())
	})
	return globalTable
}

func newTable(n int) *Table {
	t := &Table{
		n:      n,
		byPath: make(map[string]*slot),
		byFD:   make(map[int]*slot),
	}
	for _, spec := range ManagedPaths(n) {
		t.byPath[spec.DevicePath] = &slot{spec: spec, fd: -1}
	}
	return t
}

// Lookup returns the slot registered for a host-supplied path, or nil if
// path does not name a managed device.
func (t *Table) Lookup(path string) *slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byPath[path]
}

// forFD returns the slot bound to a managed descriptor, or nil.
func (t *Table) forFD(fd int) *slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byFD[fd]
}

// bind records that a slot's descriptor is now fd; must hold no other locks.
func (t *Table) bind(s *slot, fd int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.fd = fd
	t.byFD[fd] = s
}

// release clears a slot's descriptor binding after a real close().
func (t *Table) release(s *slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byFD, s.fd)
	s.fd = -1
	s.cfg = wire.Config{}
	s.corr = nil
	s.nonblock = false
}
