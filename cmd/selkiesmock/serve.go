package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/selkies-project/selkies-gamepad-interpose/internal/interposer"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/log"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/util"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// signalContext cancels on SIGINT/SIGTERM, a standard graceful-shutdown
// trigger for a long-running server command.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ServeCommand stands up the Unix-domain sockets a real streaming server
// would otherwise drive: one per js/event device node, per slot. It exists
// for development and for the opt-in SDL end-to-end test, not as a
// production gamepad source.
type ServeCommand struct {
	NumPads int           `help:"Number of emulated gamepad slots" default:"4" env:"SELKIES_NUM_PADS"`
	Demo    bool          `help:"Continuously drive a synthetic button/axis pattern once a library connects"`
	Period  time.Duration `help:"Interval between synthetic events in --demo mode" default:"500ms"`
}

// Run is called by Kong when the serve command is executed.
func (s *ServeCommand) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()
	return s.StartServing(ctx, logger, rawLogger)
}

func (s *ServeCommand) StartServing(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	specs := interposer.ManagedPaths(s.NumPads)
	logger.Info("starting selkiesmock", "num_pads", s.NumPads, "sockets", len(specs), "demo", s.Demo)

	var wg sync.WaitGroup

	for _, spec := range specs {
		ln, err := listen(spec.SocketPath)
		if err != nil {
			stopListeners(logger)
			return fmt.Errorf("selkiesmock: listen %s: %w", spec.SocketPath, err)
		}
		listeners = append(listeners, ln)

		wg.Add(1)
		go func(spec interposer.DeviceSpec, ln net.Listener) {
			defer wg.Done()
			serveSlot(ctx, spec, ln, s, logger, rawLogger)
		}(spec, ln)
	}

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down, closing sockets")
	stopListeners(logger)
	wg.Wait()
	return nil
}

// listeners is the set of sockets currently bound by StartServing, closed on
// shutdown; package-scoped since a single selkiesmock process ever runs one
// serve command at a time.
var listeners []net.Listener

func stopListeners(logger *slog.Logger) {
	for _, ln := range listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Warn("close listener", "error", err)
		}
	}
	listeners = nil
}

// listen binds a Unix-domain socket at path, removing a stale socket file
// left behind by a previous, uncleanly-terminated run first.
func listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

// serveSlot accepts connections for one device node for the lifetime of ctx.
// Devices are present from process startup until process exit, so a closed
// connection (host closed the fd) just waits for the next open() to dial
// in again.
func serveSlot(ctx context.Context, spec interposer.DeviceSpec, ln net.Listener, s *ServeCommand, logger *slog.Logger, rawLogger log.RawLogger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("accept", "socket", spec.SocketPath, "error", err)
			continue
		}
		go handleConn(ctx, spec, conn, s, logger, rawLogger)
	}
}

// handleConn performs the configuration handshake and then, in --demo
// mode, drives a synthetic input pattern until the peer disconnects or ctx
// is canceled.
func handleConn(ctx context.Context, spec interposer.DeviceSpec, conn net.Conn, s *ServeCommand, logger *slog.Logger, rawLogger log.RawLogger) {
	defer conn.Close()

	cfg := defaultConfig()
	cfgBytes := wire.MarshalConfig(cfg)
	if _, err := conn.Write(cfgBytes); err != nil {
		logger.Warn("write config", "socket", spec.SocketPath, "error", err)
		return
	}
	rawLogger.Log(false, cfgBytes)

	wordSize := make([]byte, 1)
	if _, err := readFullConn(conn, wordSize); err != nil {
		logger.Warn("read word size", "socket", spec.SocketPath, "error", err)
		return
	}
	rawLogger.Log(true, wordSize)
	logger.Info("handshake complete", "socket", spec.SocketPath, "kind", spec.Kind, "word_size", wordSize[0])

	if !s.Demo {
		<-ctx.Done()
		return
	}
	driveDemo(ctx, spec, conn, int(wordSize[0]), s.Period, logger, rawLogger)
}

func readFullConn(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
