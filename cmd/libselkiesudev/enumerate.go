package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/discovery"
)

// enumerateHandle tracks the list-entry handles an enumeration hands out so
// they can be freed together when the enumeration itself is unreffed.
type enumerateHandle struct {
	enum    *discovery.Enumerate
	entries []handleSlot
}

func (e *enumerateHandle) entryHandle(head *discovery.ListEntry) unsafe.Pointer {
	if head == nil {
		return nil
	}
	h := newHandle(head)
	e.entries = append(e.entries, h)
	return h.ptr()
}

func (e *enumerateHandle) release() {
	for _, h := range e.entries {
		h.delete()
	}
	e.entries = nil
}

func enumerateOf(p unsafe.Pointer) *enumerateHandle {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	eh, _ := h.Value().(*enumerateHandle)
	return eh
}

//export udev_enumerate_new
func udev_enumerate_new(p unsafe.Pointer) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil {
		return nil
	}
	e := discovery.NewEnumerate(ctx)
	if e == nil {
		return nil
	}
	return toPtr(newHandle(&enumerateHandle{enum: e}))
}

//export udev_enumerate_ref
func udev_enumerate_ref(p unsafe.Pointer) unsafe.Pointer {
	eh := enumerateOf(p)
	if eh == nil {
		return nil
	}
	eh.enum.Ref()
	return p
}

//export udev_enumerate_unref
func udev_enumerate_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	eh, _ := h.Value().(*enumerateHandle)
	if eh == nil {
		return nil
	}
	if eh.enum.Unref() == nil {
		eh.release()
		h.Delete()
		return nil
	}
	return p
}

//export udev_enumerate_add_match_subsystem
func udev_enumerate_add_match_subsystem(p unsafe.Pointer, subsystem *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil || subsystem == nil {
		return -1
	}
	eh.enum.AddMatchSubsystem(C.GoString(subsystem))
	return 0
}

//export udev_enumerate_add_match_sysname
func udev_enumerate_add_match_sysname(p unsafe.Pointer, sysname *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil || sysname == nil {
		return -1
	}
	eh.enum.AddMatchSysname(C.GoString(sysname))
	return 0
}

//export udev_enumerate_add_match_property
func udev_enumerate_add_match_property(p unsafe.Pointer, property, value *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil || property == nil {
		return -1
	}
	var v *string
	if value != nil {
		s := C.GoString(value)
		v = &s
	}
	eh.enum.AddMatchProperty(C.GoString(property), v)
	return 0
}

//export udev_enumerate_add_match_tag
func udev_enumerate_add_match_tag(p unsafe.Pointer, tag *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if tag != nil {
		eh.enum.AddMatchTag(C.GoString(tag))
	}
	return 0
}

//export udev_enumerate_add_match_sysnum
func udev_enumerate_add_match_sysnum(p unsafe.Pointer, sysnum *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if sysnum != nil {
		eh.enum.AddMatchSysnum(C.GoString(sysnum))
	}
	return 0
}

//export udev_enumerate_add_match_parent
func udev_enumerate_add_match_parent(p, parent unsafe.Pointer) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	var dev *discovery.Device
	if dh := deviceOf(parent); dh != nil {
		dev = dh.dev
	}
	eh.enum.AddMatchParent(dev)
	return 0
}

//export udev_enumerate_add_match_is_initialized
func udev_enumerate_add_match_is_initialized(p unsafe.Pointer) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	eh.enum.AddMatchIsInitialized()
	return 0
}

//export udev_enumerate_add_nomatch_subsystem
func udev_enumerate_add_nomatch_subsystem(p unsafe.Pointer, subsystem *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if subsystem != nil {
		eh.enum.AddNomatchSubsystem(C.GoString(subsystem))
	}
	return 0
}

//export udev_enumerate_add_nomatch_sysname
func udev_enumerate_add_nomatch_sysname(p unsafe.Pointer, sysname *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if sysname != nil {
		eh.enum.AddNomatchSysname(C.GoString(sysname))
	}
	return 0
}

//export udev_enumerate_add_nomatch_property
func udev_enumerate_add_nomatch_property(p unsafe.Pointer, property, value *C.char) C.int {
	eh := enumerateOf(p)
	if eh == nil || property == nil {
		return -1
	}
	var v *string
	if value != nil {
		s := C.GoString(value)
		v = &s
	}
	eh.enum.AddNomatchProperty(C.GoString(property), v)
	return 0
}

//export udev_enumerate_scan_devices
func udev_enumerate_scan_devices(p unsafe.Pointer) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if err := eh.enum.ScanDevices(); err != nil {
		return -1
	}
	return 0
}

//export udev_enumerate_scan_subsystems
func udev_enumerate_scan_subsystems(p unsafe.Pointer) C.int {
	eh := enumerateOf(p)
	if eh == nil {
		return -1
	}
	if err := eh.enum.ScanSubsystems(); err != nil {
		return -1
	}
	return 0
}

//export udev_enumerate_get_list_entry
func udev_enumerate_get_list_entry(p unsafe.Pointer) unsafe.Pointer {
	eh := enumerateOf(p)
	if eh == nil {
		return nil
	}
	return eh.entryHandle(eh.enum.GetListEntry())
}
