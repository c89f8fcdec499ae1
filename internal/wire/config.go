// Package wire implements the fixed-size binary records exchanged over the
// per-device Unix sockets.
// Every record is encoded/decoded by hand with encoding/binary rather than
// overlaying C structs on Go memory.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	nameSize    = 255
	btnMapSize  = 512
	axesMapSize = 64

	// nameAlignPad accounts for the single byte a real C compiler would
	// insert after a 255-byte char array to align the following uint16
	// fields on a 2-byte boundary.
	nameAlignPad = 1
	// tailPad rounds the record out to its final wire size.
	tailPad = 6

	// ConfigSize is sizeof(config_record).
	ConfigSize = nameSize + nameAlignPad + 2*5 + btnMapSize*2 + axesMapSize*1 + tailPad
)

// Config is the per-device configuration record the server sends first,
// over each socket, during the configuration handshake.
type Config struct {
	Name    string
	Vendor  uint16
	Product uint16
	Version uint16
	NumBtns uint16
	NumAxes uint16
	BtnMap  [btnMapSize]uint16
	AxesMap [axesMapSize]uint8
}

// UnmarshalConfig decodes exactly ConfigSize bytes into a Config. The name
// field is force-null-terminated: if the server didn't include a NUL within
// the 255-byte field, the string is truncated to leave room for one.
func UnmarshalConfig(data []byte) (Config, error) {
	var c Config
	if len(data) < ConfigSize {
		return c, fmt.Errorf("wire: config record too short: got %d bytes, want %d", len(data), ConfigSize)
	}

	off := 0
	nameField := data[off : off+nameSize]
	if idx := bytes.IndexByte(nameField, 0); idx >= 0 {
		c.Name = string(nameField[:idx])
	} else {
		c.Name = string(nameField[:nameSize-1])
	}
	off += nameSize
	off += nameAlignPad

	c.Vendor = binary.LittleEndian.Uint16(data[off:])
	off += 2
	c.Product = binary.LittleEndian.Uint16(data[off:])
	off += 2
	c.Version = binary.LittleEndian.Uint16(data[off:])
	off += 2
	c.NumBtns = binary.LittleEndian.Uint16(data[off:])
	off += 2
	c.NumAxes = binary.LittleEndian.Uint16(data[off:])
	off += 2

	for i := 0; i < btnMapSize; i++ {
		c.BtnMap[i] = binary.LittleEndian.Uint16(data[off:])
		off += 2
	}
	copy(c.AxesMap[:], data[off:off+axesMapSize])
	off += axesMapSize
	off += tailPad

	return c, nil
}

// MarshalConfig encodes a Config to exactly ConfigSize bytes. It exists
// mainly for tests and for the reference mock server (cmd/selkiesmock),
// which plays the part of the external controlling process on the other
// end of the socket.
func MarshalConfig(c Config) []byte {
	buf := make([]byte, ConfigSize)
	off := 0
	n := copy(buf[off:off+nameSize], c.Name)
	_ = n // remaining bytes stay zero, which is already NUL-terminated
	off += nameSize
	off += nameAlignPad

	binary.LittleEndian.PutUint16(buf[off:], c.Vendor)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], c.Product)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], c.Version)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], c.NumBtns)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], c.NumAxes)
	off += 2

	for i := 0; i < btnMapSize; i++ {
		binary.LittleEndian.PutUint16(buf[off:], c.BtnMap[i])
		off += 2
	}
	copy(buf[off:off+axesMapSize], c.AxesMap[:])
	off += axesMapSize
	off += tailPad

	return buf
}
