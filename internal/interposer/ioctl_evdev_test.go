package interposer

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/identity"
)

func TestEvdev_GetVersion(t *testing.T) {
	s := newTestSlot(KindEvent)
	var got uint32
	_, err := dispatchIoctl(s, eviocgversion, uintptr(unsafe.Pointer(&got)))
	require.NoError(t, err)
	assert.EqualValues(t, evVersion, got)
}

func TestEvdev_GetID(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, 8)
	_, err := dispatchIoctl(s, eviocgid, uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.EqualValues(t, identity.BusUSB, binary.LittleEndian.Uint16(buf[0:2]))
	assert.EqualValues(t, identity.Vendor, binary.LittleEndian.Uint16(buf[2:4]))
	assert.EqualValues(t, identity.Product, binary.LittleEndian.Uint16(buf[4:6]))
	assert.EqualValues(t, identity.Version, binary.LittleEndian.Uint16(buf[6:8]))
}

func TestEvdev_GetName(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, 64)
	rc, err := dispatchIoctl(s, eviocgname(uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.Equal(t, len(identity.Name), rc)
	assert.Equal(t, identity.Name, string(buf[:rc]))
}

func TestEvdev_GetProperties_AlwaysZero(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := []byte{0xff, 0xff}
	_, err := dispatchIoctl(s, eviocgprop(uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, buf)
}

func TestEvdev_GetKeyState_AllUp(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := []byte{0xff, 0xff, 0xff}
	rc, err := dispatchIoctl(s, eviocgkey(uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.Equal(t, 3, rc)
	assert.Equal(t, []byte{0, 0, 0}, buf)
}

func TestEvdev_GetBit_Base(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, 4)
	_, err := dispatchIoctl(s, eviocgbit(0, uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)

	has := func(code int) bool { return buf[code/8]&(1<<(code%8)) != 0 }
	assert.True(t, has(evSyn))
	assert.True(t, has(evKey))
	assert.True(t, has(evAbs))
	assert.True(t, has(evFF))
	assert.False(t, has(0x02)) // EV_REL not advertised
}

func TestEvdev_GetBit_Key(t *testing.T) {
	s := newTestSlot(KindEvent) // btn map: 0x130, 0x131, 0x133
	buf := make([]byte, 64)
	_, err := dispatchIoctl(s, eviocgbit(evKey, uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)

	has := func(code int) bool { return buf[code/8]&(1<<(code%8)) != 0 }
	assert.True(t, has(0x130))
	assert.True(t, has(0x131))
	assert.True(t, has(0x133))
	assert.False(t, has(0x132))
}

func TestEvdev_GetBit_Abs(t *testing.T) {
	s := newTestSlot(KindEvent) // axes map: ABS_X, ABS_Y
	buf := make([]byte, 8)
	_, err := dispatchIoctl(s, eviocgbit(evAbs, uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)

	has := func(code int) bool { return buf[code/8]&(1<<(code%8)) != 0 }
	assert.True(t, has(absX))
	assert.True(t, has(absY))
	assert.False(t, has(absZ))
}

func TestEvdev_AbsInfo_DefaultAxes(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, absInfoSize)
	_, err := dispatchIoctl(s, eviocgabs(absX), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.EqualValues(t, -32767, int32(binary.LittleEndian.Uint32(buf[4:8])))
	assert.EqualValues(t, 32767, int32(binary.LittleEndian.Uint32(buf[8:12])))
	assert.EqualValues(t, 16, int32(binary.LittleEndian.Uint32(buf[12:16])))
	assert.EqualValues(t, 128, int32(binary.LittleEndian.Uint32(buf[16:20])))
}

func TestEvdev_AbsInfo_Triggers(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, absInfoSize)
	_, err := dispatchIoctl(s, eviocgabs(absZ), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.EqualValues(t, 0, int32(binary.LittleEndian.Uint32(buf[4:8])))
	assert.EqualValues(t, 255, int32(binary.LittleEndian.Uint32(buf[8:12])))
}

func TestEvdev_AbsInfo_Hats(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, absInfoSize)
	_, err := dispatchIoctl(s, eviocgabs(absHat0X), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.EqualValues(t, -1, int32(binary.LittleEndian.Uint32(buf[4:8])))
	assert.EqualValues(t, 1, int32(binary.LittleEndian.Uint32(buf[8:12])))
}

func TestEvdev_Grab_Noop(t *testing.T) {
	s := newTestSlot(KindEvent)
	var arg int32 = 1
	rc, err := dispatchIoctl(s, iow(evMagic, evNrGrab, 4), uintptr(unsafe.Pointer(&arg)))
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
}

func TestEvdev_UploadFF_AssignsIDWhenUnset(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(-1)))

	rc, err := dispatchIoctl(s, iow(evMagic, evNrSFF, uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.Equal(t, 1, rc)
	assert.EqualValues(t, 1, int16(binary.LittleEndian.Uint16(buf[2:4])))
}

func TestEvdev_UploadFF_PreservesExistingID(t *testing.T) {
	s := newTestSlot(KindEvent)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(7)))

	rc, err := dispatchIoctl(s, iow(evMagic, evNrSFF, uint32(len(buf))), uintptr(unsafe.Pointer(&buf[0])))
	require.NoError(t, err)
	assert.Equal(t, 7, rc)
}

func TestEvdev_RemoveFF_Noop(t *testing.T) {
	s := newTestSlot(KindEvent)
	rc, err := dispatchIoctl(s, iow(evMagic, evNrRMFF, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
}

func TestEvdev_QueryEffectSlots(t *testing.T) {
	s := newTestSlot(KindEvent)
	var got int32
	_, err := dispatchIoctl(s, eviocgeffects, uintptr(unsafe.Pointer(&got)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)
}

func TestEvdev_UnknownRequest(t *testing.T) {
	s := newTestSlot(KindEvent)
	_, err := dispatchIoctl(s, ior(evMagic, 0x7e, 4), 0)
	var ie *ioctlError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, unix.ENOTTY, ie.Errno())
}

func TestEvdev_TypeLetterRejectedOnJSSlot(t *testing.T) {
	s := newTestSlot(KindJS)
	_, err := dispatchIoctl(s, eviocgversion, 0)
	var ie *ioctlError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, unix.ENOTTY, ie.Errno())
}
