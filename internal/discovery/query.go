package discovery

import "sync/atomic"

// refcount is embedded by every refcountable handle. Ref/unref must be safe
// against concurrent calls from arbitrary host threads, hence
// atomic rather than mutex-guarded.
type refcount struct {
	n int32
}

func (r *refcount) ref() int32 {
	return atomic.AddInt32(&r.n, 1)
}

// unref decrements and returns the resulting count.
func (r *refcount) unref() int32 {
	return atomic.AddInt32(&r.n, -1)
}

// Context is the root discovery handle. It owns no resources beyond itself;
// creating one triggers the one-time table build.
type Context struct {
	refcount
}

// NewContext returns a context handle with refcount 1, building the
// discovery table on first call.
func NewContext() *Context {
	Build()
	return &Context{refcount: refcount{n: 1}}
}

// Ref increments the refcount and returns the same handle.
func (c *Context) Ref() *Context {
	c.ref()
	return c
}

// Unref decrements the refcount, returning nil once it reaches zero.
func (c *Context) Unref() *Context {
	if c.unref() <= 0 {
		return nil
	}
	return c
}

// Device is a handle onto one Node. It exclusively owns an optional
// materialized property list and shares (via refcount) its Context.
type Device struct {
	refcount
	ctx        *Context
	node       *Node
	propsOnce  bool
	propsHead  *ListEntry
}

func wrapDevice(ctx *Context, n *Node) *Device {
	if n == nil {
		return nil
	}
	ctx.Ref()
	return &Device{refcount: refcount{n: 1}, ctx: ctx, node: n}
}

// DeviceFromSyspath resolves a device handle by exact syspath match.
func DeviceFromSyspath(ctx *Context, syspath string) *Device {
	if ctx == nil {
		return nil
	}
	return wrapDevice(ctx, Build().ByPath(syspath))
}

// DeviceFromSubsystemSysname resolves a device handle by (subsystem, sysname).
func DeviceFromSubsystemSysname(ctx *Context, subsystem, sysname string) *Device {
	if ctx == nil {
		return nil
	}
	return wrapDevice(ctx, Build().ByKey(subsystem, sysname))
}

// Ref increments the device's refcount.
func (d *Device) Ref() *Device {
	d.ref()
	return d
}

// Unref decrements the device's refcount, releasing its context reference
// and freeing the cached property list once it reaches zero.
func (d *Device) Unref() *Device {
	if d.unref() <= 0 {
		d.ctx.Unref()
		d.propsHead = nil
		return nil
	}
	return d
}

// Syspath returns the canonical syspath of the device.
func (d *Device) Syspath() string { return d.node.Syspath }

// Devnode returns the /dev path for JS/EVENT nodes, or "" for parents.
func (d *Device) Devnode() string {
	switch d.node.Kind {
	case KindJS, KindEvent:
		return d.node.Devnode
	default:
		return ""
	}
}

// Subsystem returns the node's subsystem ("input" or "usb").
func (d *Device) Subsystem() string { return d.node.Subsystem }

// Sysname returns the node's sysname.
func (d *Device) Sysname() string { return d.node.Sysname }

// Devtype returns "usb_device" for the USB parent, or "" otherwise.
func (d *Device) Devtype() string {
	if d.node.Kind == KindUSBParent {
		return d.node.Devtype
	}
	return ""
}

// Kind exposes the node's variant for callers outside this package (e.g.
// the joystick/evdev ioctl emulation deciding which handler to use).
func (d *Device) Kind() Kind { return d.node.Kind }

// Slot returns the gamepad slot index this device belongs to.
func (d *Device) Slot() int { return d.node.Slot }

// PropertyValue looks up a udev property by key.
func (d *Device) PropertyValue(key string) (string, bool) {
	return d.node.PropertyValue(key)
}

// SysattrValue looks up a sysfs attribute by key.
func (d *Device) SysattrValue(key string) (string, bool) {
	return d.node.SysattrValue(key)
}

// PropertiesListEntry materializes (on first call) a deep copy of the
// node's property table as a linked list, caches it on the handle, and
// returns the head. Subsequent calls return the same cached head.
func (d *Device) PropertiesListEntry() *ListEntry {
	if !d.propsOnce {
		d.propsHead = buildPropertyList(d.node.Properties)
		d.propsOnce = true
	}
	return d.propsHead
}

// DevlinksListEntry returns a one-element list containing the devnode for
// JS/EVENT devices, or nil for parents.
func (d *Device) DevlinksListEntry() *ListEntry {
	dn := d.Devnode()
	if dn == "" {
		return nil
	}
	return &ListEntry{Name: dn}
}

// GenericParent walks JS/EVENT -> INPUT_PARENT -> USB_PARENT -> nil.
func (d *Device) GenericParent() *Device {
	return wrapDevice(d.ctx, d.node.Parent)
}

// ParentWithSubsystemDevtype matches only the two explicit chains this
// tree models: (JS|EVENT)+("input","") -> INPUT_PARENT, and
// INPUT_PARENT+("usb","usb_device") -> USB_PARENT. Any other criteria, or
// criteria against a USB_PARENT (which has no parent), return nil.
func (d *Device) ParentWithSubsystemDevtype(subsystem, devtype string) *Device {
	switch d.node.Kind {
	case KindJS, KindEvent:
		if subsystem == "input" && devtype == "" {
			return wrapDevice(d.ctx, d.node.Parent)
		}
	case KindInputParent:
		if subsystem == "usb" && devtype == "usb_device" {
			return wrapDevice(d.ctx, d.node.Parent)
		}
	}
	return nil
}
