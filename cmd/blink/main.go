// Command blink drives every PWM channel of the IO expansion board at a
// fixed frequency and duty for a while, then exits. The board is put back
// in its safe state on the way out, also when interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/i2cbus"
)

func main() {
	var (
		bus     = flag.Int("bus", 1, "I2C bus number (/dev/i2c-N)")
		addr    = flag.Uint("addr", uint(hardware.DefaultAddr), "board I2C address")
		backend = flag.String("backend", i2cbus.DefaultBackend, "I2C backend: smbus, periph or rdwr")
		freq    = flag.Uint("freq", 2, "PWM frequency in Hz (1-1000)")
		duty    = flag.Float64("duty", 0.5, "duty cycle for every channel (0-1)")
		hold    = flag.Duration("hold", 10*time.Second, "how long to keep the outputs running")
		mock    = flag.Bool("mock", false, "use a simulated board (no I2C device required)")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *freq > uint(hardware.MaxPWMFreq) || !hardware.ValidFreq(uint16(*freq)) {
		slog.Error("frequency out of range", "freq", *freq)
		os.Exit(2)
	}
	if !hardware.ValidAddr(*addr) {
		slog.Error("i2c address out of range", "addr", *addr)
		os.Exit(2)
	}
	if !hardware.ValidDuty(float32(*duty)) {
		slog.Error("duty out of range", "duty", *duty)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, *mock, *backend, *bus, uint16(*addr), uint16(*freq), float32(*duty), *hold)
	cancel()
	if err != nil {
		slog.Error("blink failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, mock bool, backend string, bus int, addr, freq uint16, duty float32, hold time.Duration) error {
	var tr hardware.Transport
	if mock {
		tr = hardware.NewMockAt(addr)
	} else {
		var err error
		if tr, err = i2cbus.New(backend); err != nil {
			return err
		}
	}

	b, err := hardware.Open(ctx, tr, bus, addr)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.SetPWMFreq(ctx, freq); err != nil {
		return err
	}
	for _, ch := range hardware.Channels() {
		if err := b.SetPWMDuty(ctx, ch, duty); err != nil {
			return err
		}
	}
	if err := b.EnablePWM(ctx, true); err != nil {
		return err
	}
	slog.Info("pwm running", "freq_hz", freq, "duty", duty, "hold", hold)

	select {
	case <-time.After(hold):
	case <-ctx.Done():
		slog.Info("interrupted")
	}
	return nil
}
