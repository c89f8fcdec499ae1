package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryNames(head *ListEntry) []string {
	var out []string
	for e := head; e != nil; e = e.Next {
		out = append(out, e.Name)
	}
	return out
}

func TestEnumerate_DefaultInputScan(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	enum.AddMatchSubsystem("input")
	require.NoError(t, enum.ScanDevices())

	names := entryNames(enum.GetListEntry())
	require.Len(t, names, 8, "N=4 slots * (js + event), no input parents without a sysname pattern")

	table := Build()
	var want []string
	for _, slot := range table.Slots {
		want = append(want, slot.JS.Syspath, slot.Event.Syspath)
	}
	assert.Equal(t, want, names)
}

func TestEnumerate_NoSubsystemMatch_YieldsNothing(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	require.NoError(t, enum.ScanDevices())
	assert.Nil(t, enum.GetListEntry())
}

func TestEnumerate_SysnamePattern_IncludesInputParent(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	enum.AddMatchSubsystem("input")
	enum.AddMatchSysname("selkies_pad0")
	require.NoError(t, enum.ScanDevices())

	names := entryNames(enum.GetListEntry())
	table := Build()
	assert.Equal(t, []string{table.Slots[0].InputParent.Syspath}, names)
}

func TestEnumerate_PropertyFilter_AnyValue(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	enum.AddMatchSubsystem("input")
	enum.AddMatchProperty("ID_INPUT_JOYSTICK", nil)
	require.NoError(t, enum.ScanDevices())

	names := entryNames(enum.GetListEntry())
	assert.Len(t, names, 8, "every JS and EVENT node carries ID_INPUT_JOYSTICK=1")
}

func TestEnumerate_PropertyFilter_GamepadOnlyMatchesEvent(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	enum.AddMatchSubsystem("input")
	v := "1"
	enum.AddMatchProperty("ID_INPUT_GAMEPAD", &v)
	require.NoError(t, enum.ScanDevices())

	names := entryNames(enum.GetListEntry())
	table := Build()
	var want []string
	for _, slot := range table.Slots {
		want = append(want, slot.Event.Syspath)
	}
	assert.Equal(t, want, names)
}

func TestEnumerate_ScanSubsystems_AlwaysEmpty(t *testing.T) {
	ctx := NewContext()
	defer ctx.Unref()

	enum := NewEnumerate(ctx)
	defer enum.Unref()
	enum.AddMatchSubsystem("input")
	require.NoError(t, enum.ScanDevices())
	require.NotNil(t, enum.GetListEntry())

	require.NoError(t, enum.ScanSubsystems())
	assert.Nil(t, enum.GetListEntry())
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"", "anything", true},
		{"js0", "js0", true},
		{"js?", "js0", true},
		{"js?", "js10", false},
		{"js*", "js123", true},
		{"event[0-9]*", "event1000", true},
		{"event[a-z]*", "event1000", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, globMatch(c.pattern, c.name), "pattern=%q name=%q", c.pattern, c.name)
	}
}
