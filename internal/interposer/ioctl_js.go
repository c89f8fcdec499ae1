package interposer

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/identity"
)

// jsVersion matches JS_VERSION from the Linux kernel's joystick.h (2.1.0).
const jsVersion = 0x020100

// Joystick request numbers, per linux/joystick.h.
const (
	jsNrVersion = 0x01
	jsNrName    = 0x13
	jsNrCorr    = 0x21
	jsNrAxMap   = 0x31 // set
	jsNrAxMap2  = 0x32 // get
	jsNrBtnMap  = 0x33 // set
	jsNrBtnMap2 = 0x34 // get
	jsNrAxes    = 0x11
	jsNrButtons = 0x12
)

// dispatchJSIoctl implements the joystick-style ioctl request table. It is
// reached both for JS-kind slots and, via delegation,
// for EVENT-kind slots receiving a 'j'-type request number.
func dispatchJSIoctl(s *slot, request uint32, arg uintptr) (int, error) {
	nr := requestNr(request)
	size := int(requestSize(request))

	switch nr {
	case jsNrVersion:
		writeU32(arg, jsVersion)
		return 0, nil

	case jsNrAxes:
		writeU8(arg, uint8(s.cfg.NumAxes))
		return 0, nil

	case jsNrButtons:
		writeU8(arg, uint8(s.cfg.NumBtns))
		return 0, nil

	case jsNrName:
		return jsGetName(s, arg, size)

	case jsNrCorr:
		return jsCorrection(s, request, arg, size)

	case jsNrAxMap:
		return -1, ioctlErrno(unix.EPERM)

	case jsNrAxMap2:
		return jsGetAxMap(s, arg, size)

	case jsNrBtnMap:
		return -1, ioctlErrno(unix.EPERM)

	case jsNrBtnMap2:
		return jsGetBtnMap(s, arg, size)

	default:
		return -1, ioctlErrno(unix.ENOTTY)
	}
}

// jsGetName copies the Identity Table name, truncated and null-terminated
// to len bytes, returning the length written excluding the null.
func jsGetName(s *slot, arg uintptr, length int) (int, error) {
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

// jsCorrection implements Set/Get corrections: the blob is stored and
// returned opaquely, zero-initialized if never set.
func jsCorrection(s *slot, request uint32, arg uintptr, size int) (int, error) {
	if requestDir(request) == iocWrite {
		s.corr = append([]byte(nil), argBytes(arg, size)...)
		return 0, nil
	}
	buf := argBytes(arg, size)
	if s.corr == nil {
		for i := range buf {
			buf[i] = 0
		}
		return 0, nil
	}
	n := copy(buf, s.corr)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return 0, nil
}

// jsGetAxMap copies the per-slot axis map (uint8 codes); fails with EINVAL
// if the caller's buffer is smaller than num_axes bytes.
func jsGetAxMap(s *slot, arg uintptr, size int) (int, error) {
	n := int(s.cfg.NumAxes)
	if size < n {
		return -1, ioctlErrno(unix.EINVAL)
	}
	buf := argBytes(arg, size)
	copy(buf, s.cfg.AxesMap[:n])
	for i := n; i < size; i++ {
		buf[i] = 0
	}
	return 0, nil
}

// jsGetBtnMap copies the per-slot button map (uint16 codes); fails with
// EINVAL if the caller's buffer is smaller than num_btns * 2 bytes.
func jsGetBtnMap(s *slot, arg uintptr, size int) (int, error) {
	n := int(s.cfg.NumBtns)
	if size < n*2 {
		return -1, ioctlErrno(unix.EINVAL)
	}
	buf := argBytes(arg, size)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], s.cfg.BtnMap[i])
	}
	for i := n * 2; i < size; i++ {
		buf[i] = 0
	}
	return 0, nil
}
