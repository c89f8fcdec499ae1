package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/discovery"
)

// Each accessor mints a fresh C string per call rather than caching one on
// the entry handle: udev_list_entry_foreach callers read name/value once
// per step, and entries themselves are already owned (and thus bounded) by
// their device or enumeration handle's lifetime.
func entryOf(p unsafe.Pointer) *discovery.ListEntry {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	e, _ := h.Value().(*discovery.ListEntry)
	return e
}

//export udev_list_entry_get_next
func udev_list_entry_get_next(p unsafe.Pointer) unsafe.Pointer {
	e := entryOf(p)
	if e == nil || e.Next == nil {
		return nil
	}
	return newHandle(e.Next).ptr()
}

//export udev_list_entry_get_name
func udev_list_entry_get_name(p unsafe.Pointer) *C.char {
	e := entryOf(p)
	if e == nil {
		return nil
	}
	return C.CString(e.Name)
}

//export udev_list_entry_get_value
func udev_list_entry_get_value(p unsafe.Pointer) *C.char {
	e := entryOf(p)
	if e == nil || !e.HasValue() {
		return nil
	}
	return C.CString(*e.Value)
}
