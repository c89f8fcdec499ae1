package interposer

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/identity"
)

// Evdev protocol version and event-type/code constants, per
// linux/input-event-codes.h and linux/input.h.
const (
	evVersion = 0x010001

	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03
	evFF  = 0x15

	ffRumble = 0x50

	absX    = 0x00
	absY    = 0x01
	absZ    = 0x02
	absRX   = 0x03
	absRY   = 0x04
	absRZ   = 0x05
	absHat0X = 0x10
	absHat0Y = 0x11
)

// Evdev request numbers, per linux/input.h.
const (
	evNrVersion    = 0x01
	evNrID         = 0x02
	evNrName       = 0x06
	evNrProp       = 0x09
	evNrKey        = 0x18
	evNrGrab       = 0x90
	evNrSFF        = 0x80
	evNrRMFF       = 0x81
	evNrEffects    = 0x84
	evNrBitBase    = 0x20
	evNrBitBaseEnd = 0x20 + 0x1f // EVIOCGBIT covers ev types 0..0x1f
	evNrAbsBase    = 0x40
	evNrAbsBaseEnd = 0x40 + 0x3f
)

// dispatchEvdevIoctl implements the evdev-style ioctl request table.
// Only reached for EVENT-kind slots.
func dispatchEvdevIoctl(s *slot, request uint32, arg uintptr) (int, error) {
	nr := requestNr(request)
	size := int(requestSize(request))

	switch {
	case nr == evNrVersion:
		writeU32(arg, evVersion)
		return 0, nil

	case nr == evNrID:
		writeID(arg)
		return 0, nil

	case nr == evNrName:
		return evGetName(arg, size)

	case nr == evNrProp:
		zeroFill(arg, size)
		return 0, nil

	case nr == evNrKey:
		zeroFill(arg, size)
		return size, nil

	case nr >= evNrBitBase && nr <= evNrBitBaseEnd:
		return evGetBit(s, nr-evNrBitBase, arg, size)

	case nr >= evNrAbsBase && nr <= evNrAbsBaseEnd:
		writeAbsInfo(nr-evNrAbsBase, arg)
		return 0, nil

	case nr == evNrGrab:
		return 0, nil

	case nr == evNrSFF:
		return evUploadFF(arg), nil

	case nr == evNrRMFF:
		return 0, nil

	case nr == evNrEffects:
		writeU32(arg, 1)
		return 0, nil

	default:
		return -1, ioctlErrno(unix.ENOTTY)
	}
}

// writeID fills struct input_id { bustype, vendor, product, version }
// (four little-endian uint16 fields) from the Identity Table.
func writeID(arg uintptr) {
	buf := argBytes(arg, 8)
	binary.LittleEndian.PutUint16(buf[0:2], identity.BusUSB)
	binary.LittleEndian.PutUint16(buf[2:4], identity.Vendor)
	binary.LittleEndian.PutUint16(buf[4:6], identity.Product)
	binary.LittleEndian.PutUint16(buf[6:8], identity.Version)
}

func evGetName(arg uintptr, length int) (int, error) {
	if length <= 0 {
		return -1, ioctlErrno(unix.EINVAL)
	}
	buf := argBytes(arg, length)
	n := copy(buf, identity.Name)
	if n >= length {
		n = length - 1
	}
	buf[n] = 0
	for i := n + 1; i < length; i++ {
		buf[i] = 0
	}
	return n, nil
}

func zeroFill(arg uintptr, size int) {
	buf := argBytes(arg, size)
	for i := range buf {
		buf[i] = 0
	}
}

// evGetBit implements "Get event-type bits" for the given ev_type, packing
// one bit per supported code into a little-endian bitmask of size bytes.
func evGetBit(s *slot, ev uint32, arg uintptr, size int) (int, error) {
	buf := argBytes(arg, size)
	for i := range buf {
		buf[i] = 0
	}

	setBit := func(code uint16) {
		byteIdx := int(code) / 8
		if byteIdx >= len(buf) {
			return
		}
		buf[byteIdx] |= 1 << (code % 8)
	}

	switch ev {
	case 0:
		setBit(evSyn)
		setBit(evKey)
		setBit(evAbs)
		setBit(evFF)
	case evKey:
		for i := 0; i < int(s.cfg.NumBtns); i++ {
			setBit(s.cfg.BtnMap[i])
		}
	case evAbs:
		for i := 0; i < int(s.cfg.NumAxes); i++ {
			setBit(uint16(s.cfg.AxesMap[i]))
		}
	case evFF:
		setBit(ffRumble)
	}
	return size, nil
}

// absInfo is struct input_absinfo: six little-endian int32 fields.
type absInfo struct {
	value, minimum, maximum, fuzz, flat, resolution int32
}

func writeAbsInfo(abs uint32, arg uintptr) {
	info := absInfo{}
	switch abs {
	case absX, absY, absRX, absRY:
		info.minimum, info.maximum, info.fuzz, info.flat = -32767, 32767, 16, 128
	case absZ, absRZ:
		info.minimum, info.maximum = 0, 255
	case absHat0X, absHat0Y:
		info.minimum, info.maximum = -1, 1
	default:
		info.minimum, info.maximum, info.fuzz, info.flat = -32767, 32767, 16, 128
	}

	buf := argBytes(arg, absInfoSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(info.value))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(info.minimum))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(info.maximum))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(info.fuzz))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(info.flat))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(info.resolution))
}

// evUploadFF implements "Upload force-feedback effect": struct ff_effect
// begins with { __u16 type; __s16 id; ... }, so the incoming/outgoing id
// lives at byte offset 2. An incoming id of -1 is assigned 1; any other id
// is preserved. The resulting id is both written back and returned.
func evUploadFF(arg uintptr) int {
	id := readI16(arg, 2)
	if id == -1 {
		id = 1
		writeI16(arg, 2, id)
	}
	return int(id)
}
