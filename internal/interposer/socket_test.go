package interposer

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

func TestConnect_HandshakeRoundTrip(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "js0.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	want := wire.Config{Name: "Microsoft X-Box 360 pad", Vendor: 0x045e, Product: 0x028e, Version: 0x0114, NumBtns: 11, NumAxes: 8}
	want.BtnMap[0] = 0x130
	want.AxesMap[0] = 0x00

	serverWordSize := make(chan byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write(wire.MarshalConfig(want))
		var b [1]byte
		if _, err := conn.Read(b[:]); err == nil {
			serverWordSize <- b[0]
		}
	}()

	s := &slot{spec: DeviceSpec{Kind: KindJS, SocketPath: sockPath}, fd: -1}
	fd, err := connect(s)
	require.NoError(t, err)
	defer unix.Close(fd)

	assert.Equal(t, want.Name, s.cfg.Name)
	assert.Equal(t, want.NumBtns, s.cfg.NumBtns)
	assert.Equal(t, want.NumAxes, s.cfg.NumAxes)
	assert.EqualValues(t, 0x130, s.cfg.BtnMap[0])

	select {
	case got := <-serverWordSize:
		assert.Equal(t, byte(wordSize), got)
	case <-time.After(time.Second):
		t.Fatal("server never received the word-size byte")
	}
}

func TestDialWithRetry_TimesOutWhenNoListener(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "nobody-home.sock")
	start := time.Now()
	_, err := dialWithRetry(sockPath)
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Less(t, elapsed, 2*connectTimeout+100*time.Millisecond)
}

func TestDialWithRetry_SucceedsOnceListenerAppears(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "late.sock")

	go func() {
		time.Sleep(30 * time.Millisecond)
		ln, err := net.Listen("unix", sockPath)
		if err != nil {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	fd, err := dialWithRetry(sockPath)
	require.NoError(t, err)
	unix.Close(fd)
}
