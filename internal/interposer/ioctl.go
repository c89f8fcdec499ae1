package interposer

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// argBytes views the caller's ioctl argument pointer as a byte slice of the
// given length. arg is the uintptr the cgo shim receives as the raw `void*`
// third ioctl argument; treating it as a pointer into the host's own memory
// is the same trick other_examples/go-xwiimote and the ebiten evdev reader
// use when they poke fixed-size C structs through an unsafe.Pointer.
func argBytes(arg uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(arg)), length)
}

func writeU8(arg uintptr, v uint8) { argBytes(arg, 1)[0] = v }

func writeU32(arg uintptr, v uint32) {
	binary.LittleEndian.PutUint32(argBytes(arg, 4), v)
}

func readI16(arg uintptr, offset int) int16 {
	return int16(binary.LittleEndian.Uint16(argBytes(arg, offset+2)[offset:]))
}

func writeI16(arg uintptr, offset int, v int16) {
	binary.LittleEndian.PutUint16(argBytes(arg, offset+2)[offset:], uint16(v))
}

// dispatchIoctl is the ioctl emulation entry point: dispatch
// by device kind, then by ioctl type letter, then by request number.
// Joystick-style requests (type letter 'j') are handled identically whether
// the managed fd is a JS or an EVENT node, per the "Joystick-style requests
// on EVENT devices" delegation rule.
func dispatchIoctl(s *slot, request uint32, arg uintptr) (int, error) {
	switch requestType(request) {
	case jsMagic:
		return dispatchJSIoctl(s, request, arg)
	case evMagic:
		if s.spec.Kind != KindEvent {
			return -1, ioctlErrno(unix.ENOTTY)
		}
		return dispatchEvdevIoctl(s, request, arg)
	default:
		return -1, ioctlErrno(unix.ENOTTY)
	}
}
