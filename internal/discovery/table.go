// Package discovery implements the Fake Device Discovery Library's data
// model and query engine: the static N-gamepad device tree (the discovery
// table builder) and the libudev-shaped query API that serves it (the
// discovery query engine).
//
// Nothing here talks to the kernel or to a real udev daemon; everything is
// served from the in-memory Table built once by Build.
package discovery

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/identity"
)

// Kind tags the four exhaustive device-node variants. There is no fifth
// kind and no inheritance: every accessor in this package switches on Kind.
type Kind int

const (
	KindJS Kind = iota
	KindEvent
	KindInputParent
	KindUSBParent
)

func (k Kind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindEvent:
		return "event"
	case KindInputParent:
		return "input_parent"
	case KindUSBParent:
		return "usb_parent"
	default:
		return "unknown"
	}
}

// KV is an ordered (name, value) pair used both for udev properties and for
// sysfs sysattrs. Lookups over a []KV are always linear.
type KV struct {
	Name  string
	Value string
}

// Node is one entry in the static device tree. Fields irrelevant to a given
// Kind are left zero (e.g. Devnode is empty for the two parent kinds).
type Node struct {
	Kind       Kind
	Slot       int
	Syspath    string
	Devnode    string
	Subsystem  string
	Sysname    string
	Devtype    string
	Properties []KV
	Sysattrs   []KV
	Parent     *Node
}

// PropertyValue does a linear search over the node's property table.
func (n *Node) PropertyValue(key string) (string, bool) {
	for _, kv := range n.Properties {
		if kv.Name == key {
			return kv.Value, true
		}
	}
	return "", false
}

// SysattrValue does a linear search over the node's sysattr table.
func (n *Node) SysattrValue(key string) (string, bool) {
	for _, kv := range n.Sysattrs {
		if kv.Name == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Slot bundles the four nodes belonging to one gamepad slot.
type Slot struct {
	Index      int
	JS         *Node
	Event      *Node
	InputParent *Node
	USBParent  *Node
}

// Table is the immutable, process-global device tree published by Build.
type Table struct {
	Slots []Slot

	bySyspath map[string]*Node
	byKey     map[subsysSysname]*Node
}

type subsysSysname struct {
	subsystem string
	sysname   string
}

// ByPath looks up a node by its exact syspath.
func (t *Table) ByPath(syspath string) *Node {
	return t.bySyspath[syspath]
}

// ByKey looks up a node by (subsystem, sysname).
func (t *Table) ByKey(subsystem, sysname string) *Node {
	return t.byKey[subsysSysname{subsystem, sysname}]
}

var (
	buildOnce  sync.Once
	globalTable *Table
)

// NumPads resolves N from SELKIES_NUM_PADS, defaulting to
// identity.NumPadsDefault and clamping to [1, identity.NumPadsMax]. It is
// only ever consulted during the single table build.
func NumPads() int {
	v := os.Getenv("SELKIES_NUM_PADS")
	if v == "" {
		return identity.NumPadsDefault
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return identity.NumPadsDefault
	}
	if n > identity.NumPadsMax {
		return identity.NumPadsMax
	}
	return n
}

// Build returns the process-global discovery table, constructing it at most
// once regardless of how many goroutines call in concurrently (initialization
// is guaranteed to happen at most once and
// to happen-before any query call that observes it").
func Build() *Table {
	buildOnce.Do(func() {
		globalTable = buildTable(NumPads())
	})
	return globalTable
}

func buildTable(n int) *Table {
	t := &Table{
		bySyspath: make(map[string]*Node, n*4),
		byKey:     make(map[subsysSysname]*Node, n*4),
	}
	for i := 0; i < n; i++ {
		slot := buildSlot(i)
		t.Slots = append(t.Slots, slot)
		for _, node := range []*Node{slot.JS, slot.Event, slot.InputParent, slot.USBParent} {
			t.bySyspath[node.Syspath] = node
			t.byKey[subsysSysname{node.Subsystem, node.Sysname}] = node
		}
	}
	return t
}

func buildSlot(i int) Slot {
	inputParentSysname := fmt.Sprintf("selkies_pad%d", i)
	inputParentSyspath := fmt.Sprintf("/sys/devices/virtual/%s/input/input%d", inputParentSysname, 10+i)
	usbParentSysname := fmt.Sprintf("selkies_usb_ctrl%d_dev", i)
	usbParentSyspath := fmt.Sprintf("/sys/devices/virtual/usb/%s", usbParentSysname)

	usbParent := &Node{
		Kind:      KindUSBParent,
		Slot:      i,
		Syspath:   usbParentSyspath,
		Subsystem: "usb",
		Sysname:   usbParentSysname,
		Devtype:   "usb_device",
		Sysattrs: []KV{
			{"idVendor", fmt.Sprintf("0x%04x", identity.Vendor)},
			{"idProduct", fmt.Sprintf("0x%04x", identity.Product)},
			{"manufacturer", "Microsoft Corporation"},
			{"product", identity.Name},
			{"bcdDevice", fmt.Sprintf("0x%04x", identity.Version)},
			{"serial", identity.USBSerial(i)},
		},
	}

	inputParent := &Node{
		Kind:      KindInputParent,
		Slot:      i,
		Syspath:   inputParentSyspath,
		Subsystem: "input",
		Sysname:   inputParentSysname,
		Sysattrs: []KV{
			{"name", identity.Name},
			{"phys", identity.Phys(i)},
			{"uniq", identity.Uniq(i)},
			{"id/vendor", fmt.Sprintf("0x%04x", identity.Vendor)},
			{"id/product", fmt.Sprintf("0x%04x", identity.Product)},
			{"id/version", fmt.Sprintf("0x%04x", identity.Version)},
			{"id/bustype", fmt.Sprintf("0x%04x", identity.BusUSB)},
			{"capabilities/ev", "1b"},
			{"capabilities/key", "7cdb000000000000"},
			{"capabilities/abs", "3003f"},
		},
		Properties: []KV{
			{"ID_INPUT", "1"},
			{"ID_INPUT_JOYSTICK", "1"},
			{"DEVPATH", devpath(inputParentSyspath)},
		},
		Parent: usbParent,
	}

	jsSysname := fmt.Sprintf("js%d", i)
	jsDevnode := fmt.Sprintf("/dev/input/%s", jsSysname)
	js := &Node{
		Kind:      KindJS,
		Slot:      i,
		Syspath:   fmt.Sprintf("%s/%s", inputParentSyspath, jsSysname),
		Devnode:   jsDevnode,
		Subsystem: "input",
		Sysname:   jsSysname,
		Properties: []KV{
			{"DEVNAME", jsDevnode},
			{"ID_INPUT_JOYSTICK", "1"},
			{"ID_INPUT", "1"},
		},
		Parent: inputParent,
	}

	eventNum := 1000 + i
	eventSysname := fmt.Sprintf("event%d", eventNum)
	eventDevnode := fmt.Sprintf("/dev/input/%s", eventSysname)
	event := &Node{
		Kind:      KindEvent,
		Slot:      i,
		Syspath:   fmt.Sprintf("%s/%s", inputParentSyspath, eventSysname),
		Devnode:   eventDevnode,
		Subsystem: "input",
		Sysname:   eventSysname,
		Properties: []KV{
			{"DEVNAME", eventDevnode},
			{"ID_INPUT_EVENT_JOYSTICK", "1"},
			{"ID_INPUT_JOYSTICK", "1"},
			{"ID_INPUT_GAMEPAD", "1"},
			{"ID_INPUT", "1"},
		},
		Parent: inputParent,
	}

	return Slot{Index: i, JS: js, Event: event, InputParent: inputParent, USBParent: usbParent}
}

func devpath(syspath string) string {
	const prefix = "/sys"
	if len(syspath) >= len(prefix) && syspath[:len(prefix)] == prefix {
		return syspath[len(prefix):]
	}
	return syspath
}
