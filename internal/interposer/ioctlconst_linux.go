//go:build linux

// Ioctl request-number construction follows the same encoding the kernel's
// asm-generic/ioctl.h macros use: direction/type/number/size packed into a
// single 32-bit value. andrieee44-mylib/linux/ioctl reimplements those macros
// for evdev request codes directly; this file does the same thing for the
// joystick (js*) and evdev (EVIOC*) request codes this package needs to
// emulate, since neither golang.org/x/sys/unix nor the corpus ships the
// js.h-derived JSIOC* numbers.
package interposer

const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

// ioc packs the four ioctl components into a request number, matching
// _IOC() from <asm-generic/ioctl.h>.
func ioc(dir, typ, nr, size uint32) uint32 {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

func ior(typ, nr, size uint32) uint32 { return ioc(iocRead, typ, nr, size) }
func iow(typ, nr, size uint32) uint32 { return ioc(iocWrite, typ, nr, size) }

// Joystick ioctl magic is 'j' (0x6a), per linux/joystick.h.
const jsMagic = 'j'

// Evdev ioctl magic is 'E' (0x45), per linux/input.h.
const evMagic = 'E'

// btnMapSize and axesMapSize mirror wire.ConfigSize's button/axis map
// capacity (KEY_MAX-BTN_MISC+1 and ABS_CNT, per linux/joystick.h).
const (
	btnMapSize  = 512
	axesMapSize = 64
)

var (
	jsiocgversion = ior(jsMagic, 0x01, 4) // __u32 driver version
	jsiocgaxes    = ior(jsMagic, 0x11, 1) // __u8 axis count
	jsiocgbuttons = ior(jsMagic, 0x12, 1) // __u8 button count

	// js_corr[axes] calibration table; axesMapSize covers the worst case.
	jsiocscorr = iow(jsMagic, 0x21, uint32(axesMapSize*16))
	jsiocgcorr = ior(jsMagic, 0x21, uint32(axesMapSize*16))

	jsiocsaxmap = iow(jsMagic, 0x31, uint32(axesMapSize)) // __u8[ABS_CNT]
	jsiocgaxmap = ior(jsMagic, 0x32, uint32(axesMapSize))

	jsiocsbtnmap = iow(jsMagic, 0x33, uint32(btnMapSize*2)) // __u16[KEY_MAX-BTN_MISC+1]
	jsiocgbtnmap = ior(jsMagic, 0x34, uint32(btnMapSize*2))

	eviocgversion = ior(evMagic, 0x01, 4)   // int
	eviocgid      = ior(evMagic, 0x02, 8)   // struct input_id
	eviocgrep     = ior(evMagic, 0x03, 8)   // [2]uint
	eviocgrab     = iow(evMagic, 0x90, 4)   // int
	eviocsff      = iow(evMagic, 0x80, 32)  // struct ff_effect, truncated size is irrelevant to us
	eviocrmff     = iow(evMagic, 0x81, 4)   // int effect id
	eviocgeffects = ior(evMagic, 0x84, 4)   // int max effects
)

// requestBase strips the size field from a request number, leaving
// dir|type|nr. EVIOCGKEY/EVIOCGLED/EVIOCGSW/EVIOCGBIT/EVIOCGNAME/etc. are
// parameterized by a caller-chosen buffer length, so dispatch recognizes
// them by comparing against the base of the family rather than an exact
// request number.
func requestBase(req uint32) uint32 {
	return req &^ (uint32(1<<iocSizeBits-1) << iocSizeShift)
}

// jsiocgname returns the request code for JSIOCGNAME(len): reading the
// device name string into a caller-sized buffer.
func jsiocgname(length uint32) uint32 { return ioc(iocRead, jsMagic, 0x13, length) }

// eviocgname returns EVIOCGNAME(len).
func eviocgname(length uint32) uint32 { return ioc(iocRead, evMagic, 0x06, length) }

// eviocgphys returns EVIOCGPHYS(len).
func eviocgphys(length uint32) uint32 { return ioc(iocRead, evMagic, 0x07, length) }

// eviocguniq returns EVIOCGUNIQ(len).
func eviocguniq(length uint32) uint32 { return ioc(iocRead, evMagic, 0x08, length) }

// eviocgprop returns EVIOCGPROP(len): the INPUT_PROP_* bitmask.
func eviocgprop(length uint32) uint32 { return ioc(iocRead, evMagic, 0x09, length) }

// eviocgkey returns EVIOCGKEY(len): the current key-state bitmask.
func eviocgkey(length uint32) uint32 { return ioc(iocRead, evMagic, 0x18, length) }

// eviocgled returns EVIOCGLED(len).
func eviocgled(length uint32) uint32 { return ioc(iocRead, evMagic, 0x19, length) }

// eviocgsw returns EVIOCGSW(len).
func eviocgsw(length uint32) uint32 { return ioc(iocRead, evMagic, 0x1b, length) }

// eviocgbit returns EVIOCGBIT(ev, len): the capability bitmask for event
// type ev (or, when ev==0, the bitmask of supported event types).
func eviocgbit(ev uint32, length uint32) uint32 {
	return ioc(iocRead, evMagic, 0x20+ev, length)
}

// eviocgabs returns EVIOCGABS(abs): the struct input_absinfo for axis abs.
func eviocgabs(abs uint32) uint32 {
	return ior(evMagic, 0x40+abs, absInfoSize)
}

// eviocsabs returns EVIOCSABS(abs).
func eviocsabs(abs uint32) uint32 {
	return iow(evMagic, 0xc0+abs, absInfoSize)
}

// absInfoSize is sizeof(struct input_absinfo): 6 x int32 (value, minimum,
// maximum, fuzz, flat, resolution).
const absInfoSize = 6 * 4

// requestType extracts the ioctl "type" (magic) letter from a request
// number, e.g. 'j' for joystick requests or 'E' for evdev requests.
func requestType(req uint32) byte {
	return byte((req >> iocTypeShift) & (1<<iocTypeBits - 1))
}

// requestNr extracts the command-number field.
func requestNr(req uint32) uint32 {
	return (req >> iocNrShift) & (1<<iocNrBits - 1)
}

// requestSize extracts the encoded parameter size in bytes.
func requestSize(req uint32) uint32 {
	return (req >> iocSizeShift) & (1<<iocSizeBits - 1)
}

// requestDir extracts the direction field (iocNone/iocWrite/iocRead).
func requestDir(req uint32) uint32 {
	return (req >> iocDirShift) & (1<<iocDirBits - 1)
}

