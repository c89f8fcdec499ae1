package discovery

import (
	"fmt"
	"os"
	"strings"
)

// Monitor is an opaque placeholder: hotplug is explicitly out of scope,
// so no netlink socket is ever created and no event is ever delivered.
type Monitor struct {
	refcount
	ctx *Context
}

// NewMonitorFromNetlink returns a monitor handle bound to ctx. The name
// argument ("udev" or "kernel" in real libudev) is accepted and ignored.
func NewMonitorFromNetlink(ctx *Context, name string) *Monitor {
	if ctx == nil {
		return nil
	}
	ctx.Ref()
	return &Monitor{refcount: refcount{n: 1}, ctx: ctx}
}

func (m *Monitor) Ref() *Monitor {
	m.ref()
	return m
}

func (m *Monitor) Unref() *Monitor {
	if m.unref() <= 0 {
		m.ctx.Unref()
		return nil
	}
	return m
}

func (m *Monitor) EnableReceiving() error { return nil }

// GetFd returns the process's standard input descriptor as an
// always-readable placeholder (an open question: consumers
// that poll it may observe spurious activity tied to the host's stdin
// rather than device hotplug).
func (m *Monitor) GetFd() int { return int(os.Stdin.Fd()) }

// ReceiveDevice always returns nil: no hotplug event is ever queued.
func (m *Monitor) ReceiveDevice() *Device { return nil }

func (m *Monitor) FilterAddMatchSubsystemDevtype(string, string) error { return nil }
func (m *Monitor) FilterUpdate() error                                 { return nil }
func (m *Monitor) FilterRemove() error                                 { return nil }

// Queue is an opaque placeholder that always reports empty/finished.
type Queue struct {
	refcount
	ctx *Context
}

func NewQueue(ctx *Context) *Queue {
	if ctx == nil {
		return nil
	}
	ctx.Ref()
	return &Queue{refcount: refcount{n: 1}, ctx: ctx}
}

func (q *Queue) Ref() *Queue {
	q.ref()
	return q
}

func (q *Queue) Unref() *Queue {
	if q.unref() <= 0 {
		q.ctx.Unref()
		return nil
	}
	return q
}

// IsEmpty always reports true: the transfer queue this models never has
// events in flight because there is no hotplug daemon feeding it.
func (q *Queue) IsEmpty() bool { return true }

// IsFinished mirrors udev_queue_get_seqnum_is_finished's "already settled"
// answer.
func (q *Queue) IsFinished(uint64) bool { return true }

// Hwdb is a trivial stub: this layer never needs hardware-database lookups
// because every attribute it serves comes from the static identity table.
type Hwdb struct {
	refcount
	ctx *Context
}

func NewHwdb(ctx *Context) *Hwdb {
	if ctx == nil {
		return nil
	}
	ctx.Ref()
	return &Hwdb{refcount: refcount{n: 1}, ctx: ctx}
}

func (h *Hwdb) Ref() *Hwdb {
	h.ref()
	return h
}

func (h *Hwdb) Unref() *Hwdb {
	if h.unref() <= 0 {
		h.ctx.Unref()
		return nil
	}
	return h
}

func (h *Hwdb) GetProperties(string) *ListEntry { return nil }

// LogPriority get/set are trivial in-memory stubs; nothing in this layer
// ever logs through libudev's own logging hook.
var logPriority = 3 // LOG_ERR, matching libudev's conservative default

func GetLogPriority() int     { return logPriority }
func SetLogPriority(p int)    { logPriority = p }

// UtilEncodeString mirrors udev_util_encode_string: everything outside the
// conservative safe set is escaped as \xHH.
func UtilEncodeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSafeUdevChar(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	return b.String()
}

func isSafeUdevChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	}
	switch c {
	case '#', '+', '-', '.', ':', '=', '_':
		return true
	}
	return false
}
