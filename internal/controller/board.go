package controller

import (
	"context"
	"fmt"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/models"
)

// SetPWM applies a partial update to the PWM block.
func (c *Controller) SetPWM(ctx context.Context, upd models.PWMUpdate) (models.State, *models.AppError) {
	if appErr := upd.Validate(); appErr != nil {
		return models.State{}, appErr
	}
	return c.apply(ctx, func(s *models.State) *models.AppError {
		if upd.Enabled != nil {
			s.PWM.Enabled = *upd.Enabled
		}
		if upd.FreqHz != nil {
			s.PWM.FreqHz = *upd.FreqHz
		}
		for i, d := range upd.Duty {
			if d != nil {
				s.PWM.Duty[i] = *d
			}
		}
		return nil
	})
}

// SetDuty sets one channel's duty cycle.
func (c *Controller) SetDuty(ctx context.Context, ch hardware.Channel, upd models.DutyUpdate) (models.State, *models.AppError) {
	if !ch.Valid() {
		return models.State{}, models.ErrNotFound(fmt.Sprintf("channel %d not found", ch))
	}
	if appErr := upd.Validate(); appErr != nil {
		return models.State{}, appErr
	}
	return c.apply(ctx, func(s *models.State) *models.AppError {
		s.PWM.Duty[ch] = *upd.Duty
		return nil
	})
}

// SetADC enables or disables the ADC block.
func (c *Controller) SetADC(ctx context.Context, upd models.ADCUpdate) (models.State, *models.AppError) {
	return c.apply(ctx, func(s *models.State) *models.AppError {
		if upd.Enabled != nil {
			s.ADC.Enabled = *upd.Enabled
		}
		return nil
	})
}

// ReadADC reads one channel. The ADC block must be enabled.
func (c *Controller) ReadADC(ctx context.Context, ch hardware.Channel) (models.ADCReading, *models.AppError) {
	if !ch.Valid() {
		return models.ADCReading{}, models.ErrNotFound(fmt.Sprintf("channel %d not found", ch))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if appErr := c.readyADC(); appErr != nil {
		return models.ADCReading{}, appErr
	}
	v, err := c.board.ADCValue(ctx, ch)
	if err != nil {
		return models.ADCReading{}, hwError(err)
	}
	return models.ADCReading{Channel: int(ch), Value: v}, nil
}

// ReadADCAll reads every channel in order.
func (c *Controller) ReadADCAll(ctx context.Context) ([]models.ADCReading, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if appErr := c.readyADC(); appErr != nil {
		return nil, appErr
	}
	vals, err := c.board.ADCValues(ctx)
	if err != nil {
		return nil, hwError(err)
	}
	out := make([]models.ADCReading, len(vals))
	for i, v := range vals {
		out[i] = models.ADCReading{Channel: i, Value: v}
	}
	return out, nil
}

// readyADC checks the board can be sampled. Caller holds c.mu.
func (c *Controller) readyADC() *models.AppError {
	if c.board == nil {
		return errClosed()
	}
	if !c.state.ADC.Enabled {
		return models.ErrConflict("adc is disabled")
	}
	return nil
}

// Reset puts the board in its safe state: PWM off, every duty zero, ADC
// off. The PWM frequency register is left as it was.
func (c *Controller) Reset(ctx context.Context) (models.State, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.board == nil {
		return models.State{}, errClosed()
	}
	if err := c.board.Reset(ctx); err != nil {
		return models.State{}, hwError(err)
	}
	next := c.state
	next.PWM.Enabled = false
	next.PWM.Duty = [models.NumChannels]float64{}
	next.ADC.Enabled = false
	c.commit(next)
	return next, nil
}

// Apply replaces the whole desired state, e.g. after the state file was
// edited on disk.
func (c *Controller) Apply(ctx context.Context, incoming models.State) (models.State, *models.AppError) {
	if appErr := incoming.Validate(); appErr != nil {
		return models.State{}, appErr
	}
	return c.apply(ctx, func(s *models.State) *models.AppError {
		*s = incoming
		return nil
	})
}
