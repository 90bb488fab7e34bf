// Command iohatd serves the IO expansion board over HTTP. It owns the only
// bus session to the board and leaves it in its safe state on exit.
// Run with --mock to use a simulated board (no I2C device required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/thinkier/dfr-io-hat/internal/api"
	"github.com/thinkier/dfr-io-hat/internal/auth"
	"github.com/thinkier/dfr-io-hat/internal/config"
	"github.com/thinkier/dfr-io-hat/internal/controller"
	"github.com/thinkier/dfr-io-hat/internal/events"
	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/i2cbus"
	"github.com/thinkier/dfr-io-hat/internal/identity"
	"github.com/thinkier/dfr-io-hat/internal/models"
	"github.com/thinkier/dfr-io-hat/internal/zeroconf"
)

// options are the parsed command-line flags.
type options struct {
	mock    bool
	addr    string
	cfgDir  string
	bus     int
	i2cAddr uint16
	backend string
}

func main() {
	var (
		mock    = flag.Bool("mock", false, "use a simulated board (no I2C device required)")
		addr    = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir  = flag.String("config-dir", "", "config directory (default: ~/.config/iohat)")
		bus     = flag.Int("bus", 1, "I2C bus number (/dev/i2c-N)")
		i2cAddr = flag.Uint("i2c-addr", uint(hardware.DefaultAddr), "board I2C address (7-bit)")
		backend = flag.String("backend", i2cbus.DefaultBackend, "I2C backend: smbus, periph or rdwr")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if !hardware.ValidAddr(*i2cAddr) {
		slog.Error("i2c address out of range", "addr", *i2cAddr, "max", hardware.MaxAddr)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cancel, options{
		mock:    *mock,
		addr:    *addr,
		cfgDir:  *cfgDir,
		bus:     *bus,
		i2cAddr: uint16(*i2cAddr),
		backend: *backend,
	})
	cancel()
	os.Exit(code)
}

// run serves until ctx is done and returns the process exit code. Every
// resource it acquires is released before it returns.
func run(ctx context.Context, cancel context.CancelFunc, opts options) int {
	if opts.cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			return 1
		}
		opts.cfgDir = filepath.Join(home, ".config", "iohat")
	}
	if err := os.MkdirAll(opts.cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", opts.cfgDir, "err", err)
		return 1
	}

	authSvc, err := auth.NewService(opts.cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		return 1
	}
	defer authSvc.Close()

	// Board session
	var tr hardware.Transport
	backendName := opts.backend
	if opts.mock {
		slog.Info("using mock board")
		tr = hardware.NewMockAt(opts.i2cAddr)
		backendName = "mock"
	} else {
		tr, err = i2cbus.New(opts.backend)
		if err != nil {
			slog.Error("i2c backend unavailable", "backend", opts.backend, "err", err)
			return 1
		}
	}
	board, err := hardware.Open(ctx, tr, opts.bus, opts.i2cAddr)
	if err != nil {
		slog.Error("board initialization failed", "bus", opts.bus, "addr", opts.i2cAddr, "err", err)
		return 1
	}

	store := config.NewJSONStore(opts.cfgDir)
	evBus := events.NewBus()

	ctrl, err := controller.New(ctx, board, store, evBus, controller.Options{
		Backend: backendName,
		Bus:     opts.bus,
		Mock:    opts.mock,
		Version: identity.GetVersion(opts.cfgDir),
	})
	if err != nil {
		board.Close()
		slog.Error("controller initialization failed", "err", err)
		return 1
	}
	// Runs last: resets the board and releases the bus.
	defer func() {
		if err := ctrl.Close(); err != nil {
			slog.Warn("failed to flush config", "err", err)
		}
	}()

	// Hand-edits of the state file are applied live.
	watcher, err := config.NewWatcher(store, func(st models.State) {
		if _, appErr := ctrl.Apply(ctx, st); appErr != nil {
			slog.Warn("state file rejected", "err", appErr)
		}
	})
	if err != nil {
		slog.Warn("state file watcher disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	// Zeroconf mDNS registration
	zc := zeroconf.New("iohat-"+identity.GetHostname(), listenPort(opts.addr), ctrl.Info())
	go func() {
		if err := zc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:         opts.addr,
		Handler:      api.NewRouter(ctrl, evBus, authSvc.Middleware),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	var code atomic.Int32
	go func() {
		slog.Info("iohatd listening", "addr", opts.addr, "mock", opts.mock, "config", opts.cfgDir, "bus", opts.bus, "backend", backendName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			code.Store(1)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	// End SSE streams so Shutdown does not wait on them.
	evBus.Close()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
	return int(code.Load())
}

// listenPort extracts the port from a listen address, defaulting to 80.
func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 80
	}
	return port
}
