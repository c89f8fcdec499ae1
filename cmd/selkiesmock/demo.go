package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/interposer"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/log"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// driveDemo pushes a repeating press/release of BTN_SOUTH and a left-stick
// sweep on ABS_X, the minimum pattern an SDL-side consumer can observe to
// confirm both the js and event paths are wired end to end
// (testing/e2e/sdl_probe_test.go drives this path).
func driveDemo(ctx context.Context, spec interposer.DeviceSpec, conn net.Conn, wordSize int, period time.Duration, logger *slog.Logger, rawLogger log.RawLogger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	pressed := false
	axis := int16(0)
	step := int16(8192)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var payloads [][]byte
		switch spec.Kind {
		case interposer.KindJS:
			pressed = !pressed
			val := int16(0)
			if pressed {
				val = 1
			}
			payloads = append(payloads, wire.MarshalJSEvent(wire.JSEvent{
				Time: uint32(time.Now().UnixMilli()), Value: val, Type: 0x01, Number: 0,
			}))
			axis += step
			if axis > 32767 || axis < -32767 {
				step = -step
			}
			payloads = append(payloads, wire.MarshalJSEvent(wire.JSEvent{
				Time: uint32(time.Now().UnixMilli()), Value: axis, Type: 0x02, Number: 0,
			}))
		case interposer.KindEvent:
			pressed = !pressed
			val := int32(0)
			if pressed {
				val = 1
			}
			payloads = append(payloads, marshalInputNow(btnSouth, val, wordSize, evKeyType))
			axis += step
			if axis > 32767 || axis < -32767 {
				step = -step
			}
			payloads = append(payloads, marshalInputNow(absX, int32(axis), wordSize, evAbsType))
			payloads = append(payloads, marshalInputNow(0, 0, wordSize, evSynType))
		}

		for _, p := range payloads {
			if _, err := conn.Write(p); err != nil {
				logger.Info("demo peer disconnected", "socket", spec.SocketPath, "error", err)
				return
			}
			rawLogger.Log(false, p)
		}
	}
}

// evKeyType, evAbsType, evSynType mirror internal/interposer's unexported
// ioctl_evdev.go constants; duplicated here since this package sits on the
// other side of the socket and has no reason to import interposer internals
// for three numeric literals.
const (
	evSynType = 0x00
	evKeyType = 0x01
	evAbsType = 0x03
)

func marshalInputNow(code uint16, value int32, wordSize int, evType uint16) []byte {
	now := time.Now()
	return wire.MarshalInputEvent(wire.InputEvent{
		Sec:   now.Unix(),
		Usec:  int64(now.Nanosecond() / 1000),
		Type:  evType,
		Code:  code,
		Value: value,
	}, wordSize)
}
