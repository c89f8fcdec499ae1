package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_RoundTrip(t *testing.T) {
	c := Config{
		Name:    "Ignored",
		Vendor:  0x045e,
		Product: 0x028e,
		Version: 0x0114,
		NumBtns: 11,
		NumAxes: 8,
	}
	c.BtnMap[0] = 0x130 // BTN_A
	c.AxesMap[0] = 0x00 // ABS_X

	buf := MarshalConfig(c)
	require.Len(t, buf, ConfigSize)

	got, err := UnmarshalConfig(buf)
	require.NoError(t, err)
	assert.Equal(t, "Ignored", got.Name)
	assert.EqualValues(t, 11, got.NumBtns)
	assert.EqualValues(t, 8, got.NumAxes)
	assert.EqualValues(t, 0x130, got.BtnMap[0])
}

func TestConfig_ForceNullTerminatesName(t *testing.T) {
	buf := make([]byte, ConfigSize)
	for i := 0; i < nameSize; i++ {
		buf[i] = 'A' // no NUL anywhere in the name field
	}
	got, err := UnmarshalConfig(buf)
	require.NoError(t, err)
	assert.Len(t, got.Name, nameSize-1)
}

func TestConfig_TooShort(t *testing.T) {
	_, err := UnmarshalConfig(make([]byte, ConfigSize-1))
	assert.Error(t, err)
}

func TestJSEvent_RoundTrip(t *testing.T) {
	e := JSEvent{Time: 123456, Value: -500, Type: 0x02, Number: 3}
	buf := MarshalJSEvent(e)
	require.Len(t, buf, JSEventSize)
	got, err := UnmarshalJSEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestInputEvent_RoundTrip64(t *testing.T) {
	e := InputEvent{Sec: 1700000000, Usec: 42, Type: 3, Code: 0, Value: -32767}
	buf := MarshalInputEvent(e, 8)
	require.Len(t, buf, 24)
	got, err := UnmarshalInputEvent(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestInputEvent_RoundTrip32(t *testing.T) {
	e := InputEvent{Sec: 1700000000, Usec: 42, Type: 3, Code: 0, Value: -32767}
	buf := MarshalInputEvent(e, 4)
	require.Len(t, buf, 16)
	got, err := UnmarshalInputEvent(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}
