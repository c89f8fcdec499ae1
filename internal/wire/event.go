package wire

import (
	"encoding/binary"
	"fmt"
)

// JSEventSize is the wire size of a joystick-style record:
// timestamp u32, value i16, type u8, number u8.
const JSEventSize = 8

// JSEvent is one /dev/input/jsX record.
type JSEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// UnmarshalJSEvent decodes exactly JSEventSize bytes.
func UnmarshalJSEvent(data []byte) (JSEvent, error) {
	var e JSEvent
	if len(data) < JSEventSize {
		return e, fmt.Errorf("wire: js event too short: got %d bytes, want %d", len(data), JSEventSize)
	}
	e.Time = binary.LittleEndian.Uint32(data[0:4])
	e.Value = int16(binary.LittleEndian.Uint16(data[4:6]))
	e.Type = data[6]
	e.Number = data[7]
	return e, nil
}

// MarshalJSEvent encodes a JSEvent to JSEventSize bytes.
func MarshalJSEvent(e JSEvent) []byte {
	buf := make([]byte, JSEventSize)
	binary.LittleEndian.PutUint32(buf[0:4], e.Time)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(e.Value))
	buf[6] = e.Type
	buf[7] = e.Number
	return buf
}

// InputEvent is the evdev-style record delivered on /dev/input/eventK:
// a kernel timeval (seconds + microseconds) followed by type/code/value.
type InputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// InputEventSize returns sizeof(struct input_event) for the given pointer
// size in bytes (4 or 8), matching the word-size byte sent during the
// configuration handshake: a 32-bit timeval packs
// into 8 bytes (two 4-byte fields), a 64-bit timeval into 16.
func InputEventSize(wordSize int) int {
	if wordSize >= 8 {
		return 16 + 2 + 2 + 4 // 24
	}
	return 8 + 2 + 2 + 4 // 16
}

// UnmarshalInputEvent decodes exactly InputEventSize(wordSize) bytes.
func UnmarshalInputEvent(data []byte, wordSize int) (InputEvent, error) {
	var e InputEvent
	size := InputEventSize(wordSize)
	if len(data) < size {
		return e, fmt.Errorf("wire: input_event too short: got %d bytes, want %d", len(data), size)
	}
	off := 0
	if wordSize >= 8 {
		e.Sec = int64(binary.LittleEndian.Uint64(data[off:]))
		off += 8
		e.Usec = int64(binary.LittleEndian.Uint64(data[off:]))
		off += 8
	} else {
		e.Sec = int64(int32(binary.LittleEndian.Uint32(data[off:])))
		off += 4
		e.Usec = int64(int32(binary.LittleEndian.Uint32(data[off:])))
		off += 4
	}
	e.Type = binary.LittleEndian.Uint16(data[off:])
	off += 2
	e.Code = binary.LittleEndian.Uint16(data[off:])
	off += 2
	e.Value = int32(binary.LittleEndian.Uint32(data[off:]))
	return e, nil
}

// MarshalInputEvent encodes an InputEvent to InputEventSize(wordSize) bytes.
func MarshalInputEvent(e InputEvent, wordSize int) []byte {
	size := InputEventSize(wordSize)
	buf := make([]byte, size)
	off := 0
	if wordSize >= 8 {
		binary.LittleEndian.PutUint64(buf[off:], uint64(e.Sec))
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], uint64(e.Usec))
		off += 8
	} else {
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.Sec))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.Usec))
		off += 4
	}
	binary.LittleEndian.PutUint16(buf[off:], e.Type)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], e.Code)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], uint32(e.Value))
	return buf
}
