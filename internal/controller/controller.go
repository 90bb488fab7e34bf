// Package controller owns the board session. It is the single source of
// truth for the desired PWM/ADC configuration and serialises every bus
// transaction behind one lock.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thinkier/dfr-io-hat/internal/config"
	"github.com/thinkier/dfr-io-hat/internal/events"
	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/models"
)

// Options describes how the board was reached, for Info.
type Options struct {
	Backend string
	Bus     int
	Mock    bool
	Version string
}

// Controller is the central state machine for the board.
// All state mutations go through the apply() method which ensures
// atomicity, persistence, and event publishing.
type Controller struct {
	mu    sync.RWMutex
	state models.State
	board *hardware.Board
	ident hardware.Identity
	store config.Store
	bus   *events.Bus
	opts  Options
}

// New takes ownership of an open board, loads the persisted state and
// writes it to the hardware: frequency first, then duties, then enables.
// A failed hardware write is logged and the state kept.
func New(ctx context.Context, board *hardware.Board, store config.Store, bus *events.Bus, opts Options) (*Controller, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("controller: load state: %w", err)
	}
	if appErr := state.Validate(); appErr != nil {
		slog.Warn("controller: persisted state invalid, using defaults", "err", appErr)
		def := models.DefaultState()
		state = &def
	}

	c := &Controller{
		state: *state,
		board: board,
		store: store,
		bus:   bus,
		opts:  opts,
	}

	if id, err := board.Identity(ctx); err != nil {
		slog.Warn("controller: identity read failed", "err", err)
	} else {
		c.ident = id
	}

	if err := c.writeAll(ctx, c.state); err != nil {
		slog.Warn("controller: failed to apply initial state", "err", err)
	}
	return c, nil
}

// State returns a copy of the current desired state.
func (c *Controller) State() models.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Info describes the attached board.
func (c *Controller) Info() models.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	addr := uint16(0)
	if c.board != nil {
		addr = c.board.Addr()
	}
	return models.Info{
		Version:   c.opts.Version,
		Backend:   c.opts.Backend,
		Bus:       c.opts.Bus,
		Addr:      fmt.Sprintf("0x%02X", addr),
		SlaveAddr: fmt.Sprintf("0x%02X", c.ident.SlaveAddr),
		PID:       fmt.Sprintf("0x%02X", c.ident.PID),
		VID:       fmt.Sprintf("0x%02X", c.ident.VID),
		Mock:      c.opts.Mock,
	}
}

// Close resets the board to its safe state, releases the bus and flushes
// pending state to the store. Further operations fail with 503.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.board != nil {
		c.board.Close()
		c.board = nil
	}
	return c.store.Flush()
}

// apply is the core mutation primitive. It:
//  1. Acquires the write lock
//  2. Copies the current state
//  3. Calls fn to modify the copy (fn may return an error to abort)
//  4. Writes the registers that changed to the board
//  5. If that succeeds: updates state, schedules save, publishes event
//
// A state identical to the current one is not written, saved or published.
func (c *Controller) apply(ctx context.Context, fn func(*models.State) *models.AppError) (models.State, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.board == nil {
		return models.State{}, errClosed()
	}
	next := c.state
	if appErr := fn(&next); appErr != nil {
		return models.State{}, appErr
	}
	if next == c.state {
		return next, nil
	}
	if err := c.writeDiff(ctx, c.state, next); err != nil {
		return models.State{}, hwError(err)
	}
	c.commit(next)
	return next, nil
}

// commit records next as current. Caller holds c.mu.
func (c *Controller) commit(next models.State) {
	c.state = next
	if err := c.store.Save(&c.state); err != nil {
		slog.Warn("controller: save failed", "err", err)
	}
	c.bus.Publish(c.state)
}

// writeAll writes every register the state covers.
func (c *Controller) writeAll(ctx context.Context, s models.State) error {
	if err := c.board.SetPWMFreq(ctx, uint16(s.PWM.FreqHz)); err != nil {
		return err
	}
	for _, ch := range hardware.Channels() {
		if err := c.board.SetPWMDuty(ctx, ch, float32(s.PWM.Duty[ch])); err != nil {
			return err
		}
	}
	if err := c.board.EnablePWM(ctx, s.PWM.Enabled); err != nil {
		return err
	}
	return c.board.EnableADC(ctx, s.ADC.Enabled)
}

// writeDiff writes only what differs between prev and next, in the same
// order as writeAll.
func (c *Controller) writeDiff(ctx context.Context, prev, next models.State) error {
	if prev.PWM.FreqHz != next.PWM.FreqHz {
		if err := c.board.SetPWMFreq(ctx, uint16(next.PWM.FreqHz)); err != nil {
			return err
		}
	}
	for _, ch := range hardware.Channels() {
		if prev.PWM.Duty[ch] == next.PWM.Duty[ch] {
			continue
		}
		if err := c.board.SetPWMDuty(ctx, ch, float32(next.PWM.Duty[ch])); err != nil {
			return err
		}
	}
	if prev.PWM.Enabled != next.PWM.Enabled {
		if err := c.board.EnablePWM(ctx, next.PWM.Enabled); err != nil {
			return err
		}
	}
	if prev.ADC.Enabled != next.ADC.Enabled {
		return c.board.EnableADC(ctx, next.ADC.Enabled)
	}
	return nil
}

func errClosed() *models.AppError {
	return models.ErrUnavailable("board session closed")
}

func hwError(err error) *models.AppError {
	slog.Error("controller: hardware error", "err", err)
	return models.ErrUnavailable(err.Error())
}
