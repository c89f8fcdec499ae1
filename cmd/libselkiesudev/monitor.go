package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/discovery"
)

func monitorOf(p unsafe.Pointer) *discovery.Monitor {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	m, _ := h.Value().(*discovery.Monitor)
	return m
}

//export udev_monitor_new_from_netlink
func udev_monitor_new_from_netlink(p unsafe.Pointer, name *C.char) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil {
		return nil
	}
	n := ""
	if name != nil {
		n = C.GoString(name)
	}
	m := discovery.NewMonitorFromNetlink(ctx, n)
	if m == nil {
		return nil
	}
	return newHandle(m).ptr()
}

//export udev_monitor_ref
func udev_monitor_ref(p unsafe.Pointer) unsafe.Pointer {
	m := monitorOf(p)
	if m == nil {
		return nil
	}
	m.Ref()
	return p
}

//export udev_monitor_unref
func udev_monitor_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	m, _ := h.Value().(*discovery.Monitor)
	if m == nil {
		return nil
	}
	if m.Unref() == nil {
		h.Delete()
		return nil
	}
	return p
}

//export udev_monitor_enable_receiving
func udev_monitor_enable_receiving(p unsafe.Pointer) C.int {
	m := monitorOf(p)
	if m == nil {
		return -1
	}
	if err := m.EnableReceiving(); err != nil {
		return -1
	}
	return 0
}

//export udev_monitor_get_fd
func udev_monitor_get_fd(p unsafe.Pointer) C.int {
	m := monitorOf(p)
	if m == nil {
		return -1
	}
	return C.int(m.GetFd())
}

//export udev_monitor_receive_device
func udev_monitor_receive_device(p unsafe.Pointer) unsafe.Pointer {
	m := monitorOf(p)
	if m == nil {
		return nil
	}
	return wrapDevice(m.ReceiveDevice())
}

//export udev_monitor_filter_add_match_subsystem_devtype
func udev_monitor_filter_add_match_subsystem_devtype(p unsafe.Pointer, subsystem, devtype *C.char) C.int {
	m := monitorOf(p)
	if m == nil {
		return -1
	}
	ss, dt := "", ""
	if subsystem != nil {
		ss = C.GoString(subsystem)
	}
	if devtype != nil {
		dt = C.GoString(devtype)
	}
	if err := m.FilterAddMatchSubsystemDevtype(ss, dt); err != nil {
		return -1
	}
	return 0
}

//export udev_monitor_filter_update
func udev_monitor_filter_update(p unsafe.Pointer) C.int {
	m := monitorOf(p)
	if m == nil {
		return -1
	}
	if err := m.FilterUpdate(); err != nil {
		return -1
	}
	return 0
}

//export udev_monitor_filter_remove
func udev_monitor_filter_remove(p unsafe.Pointer) C.int {
	m := monitorOf(p)
	if m == nil {
		return -1
	}
	if err := m.FilterRemove(); err != nil {
		return -1
	}
	return 0
}

func queueOf(p unsafe.Pointer) *discovery.Queue {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	q, _ := h.Value().(*discovery.Queue)
	return q
}

//export udev_queue_new
func udev_queue_new(p unsafe.Pointer) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil {
		return nil
	}
	q := discovery.NewQueue(ctx)
	if q == nil {
		return nil
	}
	return newHandle(q).ptr()
}

//export udev_queue_ref
func udev_queue_ref(p unsafe.Pointer) unsafe.Pointer {
	q := queueOf(p)
	if q == nil {
		return nil
	}
	q.Ref()
	return p
}

//export udev_queue_unref
func udev_queue_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	q, _ := h.Value().(*discovery.Queue)
	if q == nil {
		return nil
	}
	if q.Unref() == nil {
		h.Delete()
		return nil
	}
	return p
}

//export udev_queue_get_queue_is_empty
func udev_queue_get_queue_is_empty(p unsafe.Pointer) C.int {
	q := queueOf(p)
	if q == nil || !q.IsEmpty() {
		return 0
	}
	return 1
}

//export udev_queue_get_seqnum_is_finished
func udev_queue_get_seqnum_is_finished(p unsafe.Pointer, seqnum C.ulonglong) C.int {
	q := queueOf(p)
	if q == nil || !q.IsFinished(uint64(seqnum)) {
		return 0
	}
	return 1
}

func hwdbOf(p unsafe.Pointer) *discovery.Hwdb {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	hw, _ := h.Value().(*discovery.Hwdb)
	return hw
}

//export udev_hwdb_new
func udev_hwdb_new(p unsafe.Pointer) unsafe.Pointer {
	ctx := contextOf(p)
	if ctx == nil {
		return nil
	}
	hw := discovery.NewHwdb(ctx)
	if hw == nil {
		return nil
	}
	return newHandle(hw).ptr()
}

//export udev_hwdb_ref
func udev_hwdb_ref(p unsafe.Pointer) unsafe.Pointer {
	hw := hwdbOf(p)
	if hw == nil {
		return nil
	}
	hw.Ref()
	return p
}

//export udev_hwdb_unref
func udev_hwdb_unref(p unsafe.Pointer) unsafe.Pointer {
	h, ok := handleOf(p)
	if !ok {
		return nil
	}
	hw, _ := h.Value().(*discovery.Hwdb)
	if hw == nil {
		return nil
	}
	if hw.Unref() == nil {
		h.Delete()
		return nil
	}
	return p
}

//export udev_hwdb_get_properties_list_entry
func udev_hwdb_get_properties_list_entry(p unsafe.Pointer, modalias *C.char, flags C.int) unsafe.Pointer {
	hw := hwdbOf(p)
	if hw == nil {
		return nil
	}
	m := ""
	if modalias != nil {
		m = C.GoString(modalias)
	}
	_ = flags
	head := hw.GetProperties(m)
	if head == nil {
		return nil
	}
	return newHandle(head).ptr()
}
