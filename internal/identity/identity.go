// Package identity holds the single hardcoded identity contract shared by
// the discovery library and the device I/O interposer. Every host-observable
// attribute (udev properties, sysattrs, EVIOCGID/EVIOCGNAME ioctls) must be
// derived from these constants; drift between the two libraries is what
// breaks consumers that cross-check discovered metadata against an open fd.
package identity

import "fmt"

const (
	// Name is the display name reported by discovery sysattrs and by
	// JSIOCGNAME/EVIOCGNAME.
	Name = "Microsoft X-Box 360 pad"

	Vendor  uint16 = 0x045E
	Product uint16 = 0x028E
	Version uint16 = 0x0114

	// BusUSB is BUS_USB from linux/input.h.
	BusUSB uint16 = 0x0003

	// NumPadsDefault is the number of emulated gamepad slots used when
	// SELKIES_NUM_PADS is unset.
	NumPadsDefault = 4

	// NumPadsMax bounds the slot table; it exists only to keep static
	// tables finite, not because more gamepads are architecturally invalid.
	NumPadsMax = 16
)

// Phys returns the "phys" sysattr / EVIOCGPHYS value for slot i.
func Phys(i int) string {
	return fmt.Sprintf("selkies/virtpad%d/input0", i)
}

// Uniq returns the "uniq" sysattr value for slot i.
func Uniq(i int) string {
	return fmt.Sprintf("SGVP%04d", i)
}

// USBSerial returns the USB "serial" sysattr value for slot i.
func USBSerial(i int) string {
	return fmt.Sprintf("SELKIESUSB%04d", i)
}
