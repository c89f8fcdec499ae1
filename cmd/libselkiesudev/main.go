// Command libselkiesudev builds the fake device discovery library: a
// -buildmode=c-shared object exporting libudev's C ABI, LD_PRELOAD'd ahead
// of the real libudev.so.1 so that a host process's
// udev_* calls are served from the static gamepad tree in
// internal/discovery instead of talking to the kernel or udevd.
//
// Every exported function is a thin adapter: handle bookkeeping and C
// string marshaling live here, all device-tree logic lives in
// internal/discovery so it can be unit-tested without a C toolchain.
package main

/*
#include <stdlib.h>
#include <sys/types.h>
*/
import "C"

import (
	"fmt"
	"log/slog"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/discovery"
	sklog "github.com/selkies-project/selkies-gamepad-interpose/internal/log"
)

var (
	logOnce sync.Once
	logger  *slog.Logger
)

// logf writes a diagnostic line to the shared preloaded-library log file;
// failures to open it are silently dropped since there is no console a
// host process would let us print to.
func logf(format string, args ...any) {
	logOnce.Do(func() {
		l, _, _, err := sklog.OpenPreloaded()
		if err == nil {
			logger = l
		}
	})
	if logger != nil {
		logger.Info(fmt.Sprintf(format, args...))
	}
}

// toPtr and handleOf round-trip a cgo.Handle through C as an opaque
// pointer-sized value; this is the documented-safe way to hand a Go value
// to C code that only ever stores and replays it back (see runtime/cgo).
func toPtr(h cgo.Handle) unsafe.Pointer { return unsafe.Pointer(uintptr(h)) }

func handleOf(p unsafe.Pointer) (cgo.Handle, bool) {
	if p == nil {
		return 0, false
	}
	return cgo.Handle(uintptr(p)), true
}

// handleSlot is a cgo.Handle with the two operations every owner-tracked
// sub-handle (list entries, nested devices) needs; it exists so device.go
// and enumerate.go share one vocabulary instead of repeating cgo.Handle
// conversions inline.
type handleSlot cgo.Handle

func newHandle(v any) handleSlot  { return handleSlot(cgo.NewHandle(v)) }
func (h handleSlot) ptr() unsafe.Pointer { return toPtr(cgo.Handle(h)) }
func (h handleSlot) delete()             { cgo.Handle(h).Delete() }

// deviceHandle bundles a query-engine device with the C strings handed out
// for it, freed together when the device's refcount reaches zero.
type deviceHandle struct {
	dev     *discovery.Device
	cstrs   []*C.char
	entries []handleSlot
}

func (d *deviceHandle) cstr(s string) *C.char {
	c := C.CString(s)
	d.cstrs = append(d.cstrs, c)
	return c
}

func (d *deviceHandle) entryHandle(e *discovery.ListEntry) unsafe.Pointer {
	if e == nil {
		return nil
	}
	h := newHandle(e)
	d.entries = append(d.entries, h)
	return h.ptr()
}

func (d *deviceHandle) release() {
	for _, c := range d.cstrs {
		C.free(unsafe.Pointer(c))
	}
	d.cstrs = nil
	for _, h := range d.entries {
		h.delete()
	}
	d.entries = nil
}

func wrapDevice(dev *discovery.Device) unsafe.Pointer {
	if dev == nil {
		return nil
	}
	return newHandle(&deviceHandle{dev: dev}).ptr()
}

func deviceOf(p unsafe.Pointer) *deviceHandle {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	dh, _ := h.Value().(*deviceHandle)
	return dh
}

func contextOf(p unsafe.Pointer) *discovery.Context {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	ctx, _ := h.Value().(*discovery.Context)
	return ctx
}

//export udev_new
func udev_new() unsafe.Pointer {
	ctx := discovery.NewContext()
	logf("udev_new: table built with %d slots", len(discovery.Build().Slots))
	return toPtr(cgo.NewHandle(ctx))
}

//export udev_ref
func udev_ref(p unsafe.Pointer) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil {
		return nil
	}
	ctx.Ref()
	return p
}

//export udev_unref
func udev_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	ctx, _ := h.Value().(*discovery.Context)
	if ctx == nil {
		return nil
	}
	if ctx.Unref() == nil {
		h.Delete()
		return nil
	}
	return p
}

//export udev_get_userdata
func udev_get_userdata(p unsafe.Pointer) unsafe.Pointer {
	_ = p
	return nil
}

//export udev_set_userdata
func udev_set_userdata(p unsafe.Pointer, userdata unsafe.Pointer) {
	_, _ = p, userdata
}

//export udev_get_log_priority
func udev_get_log_priority(p unsafe.Pointer) C.int {
	_ = p
	return C.int(discovery.GetLogPriority())
}

//export udev_set_log_priority
func udev_set_log_priority(p unsafe.Pointer, priority C.int) {
	_ = p
	discovery.SetLogPriority(int(priority))
}

//export udev_util_encode_string
func udev_util_encode_string(p unsafe.Pointer, str *C.char, strEnc *C.char, length C.size_t) C.ssize_t {
	_ = p
	if str == nil || strEnc == nil || length == 0 {
		return -1
	}
	encoded := discovery.UtilEncodeString(C.GoString(str))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(strEnc)), int(length))
	if len(encoded)+1 > len(buf) {
		return -1
	}
	copy(buf, encoded)
	buf[len(encoded)] = 0
	return C.ssize_t(len(encoded))
}

//export udev_device_new_from_syspath
func udev_device_new_from_syspath(p unsafe.Pointer, syspath *C.char) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil || syspath == nil {
		return nil
	}
	return wrapDevice(discovery.DeviceFromSyspath(ctx, C.GoString(syspath)))
}

//export udev_device_new_from_subsystem_sysname
func udev_device_new_from_subsystem_sysname(p unsafe.Pointer, subsystem, sysname *C.char) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil || subsystem == nil || sysname == nil {
		return nil
	}
	return wrapDevice(discovery.DeviceFromSubsystemSysname(ctx, C.GoString(subsystem), C.GoString(sysname)))
}

//export udev_device_ref
func udev_device_ref(p unsafe.Pointer) unsafe.Pointer {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	dh.dev.Ref()
	return p
}

//export udev_device_unref
func udev_device_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	dh, _ := h.Value().(*deviceHandle)
	if dh == nil {
		return nil
	}
	if dh.dev.Unref() == nil {
		dh.release()
		h.Delete()
		return nil
	}
	return p
}

//export udev_device_get_syspath
func udev_device_get_syspath(p unsafe.Pointer) *C.char {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return dh.cstr(dh.dev.Syspath())
}

//export udev_device_get_devnode
func udev_device_get_devnode(p unsafe.Pointer) *C.char {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	dn := dh.dev.Devnode()
	if dn == "" {
		return nil
	}
	return dh.cstr(dn)
}

//export udev_device_get_subsystem
func udev_device_get_subsystem(p unsafe.Pointer) *C.char {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return dh.cstr(dh.dev.Subsystem())
}

//export udev_device_get_sysname
func udev_device_get_sysname(p unsafe.Pointer) *C.char {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return dh.cstr(dh.dev.Sysname())
}

//export udev_device_get_devtype
func udev_device_get_devtype(p unsafe.Pointer) *C.char {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	dt := dh.dev.Devtype()
	if dt == "" {
		return nil
	}
	return dh.cstr(dt)
}

//export udev_device_get_property_value
func udev_device_get_property_value(p unsafe.Pointer, key *C.char) *C.char {
	dh := deviceOf(p)
	if dh == nil || key == nil {
		return nil
	}
	v, ok := dh.dev.PropertyValue(C.GoString(key))
	if !ok {
		return nil
	}
	return dh.cstr(v)
}

//export udev_device_get_sysattr_value
func udev_device_get_sysattr_value(p unsafe.Pointer, sysattr *C.char) *C.char {
	dh := deviceOf(p)
	if dh == nil || sysattr == nil {
		return nil
	}
	v, ok := dh.dev.SysattrValue(C.GoString(sysattr))
	if !ok {
		return nil
	}
	return dh.cstr(v)
}

//export udev_device_get_properties_list_entry
func udev_device_get_properties_list_entry(p unsafe.Pointer) unsafe.Pointer {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return dh.entryHandle(dh.dev.PropertiesListEntry())
}

//export udev_device_get_devlinks_list_entry
func udev_device_get_devlinks_list_entry(p unsafe.Pointer) unsafe.Pointer {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return dh.entryHandle(dh.dev.DevlinksListEntry())
}

//export udev_device_get_parent
func udev_device_get_parent(p unsafe.Pointer) unsafe.Pointer {
	dh := deviceOf(p)
	if dh == nil {
		return nil
	}
	return wrapDevice(dh.dev.GenericParent())
}

//export udev_device_get_parent_with_subsystem_devtype
func udev_device_get_parent_with_subsystem_devtype(p unsafe.Pointer, subsystem, devtype *C.char) unsafe.Pointer {
	dh := deviceOf(p)
	if dh == nil || subsystem == nil {
		return nil
	}
	dt := ""
	if devtype != nil {
		dt = C.GoString(devtype)
	}
	return wrapDevice(dh.dev.ParentWithSubsystemDevtype(C.GoString(subsystem), dt))
}
