package hardware

import (
	"context"
	"fmt"
	"log/slog"
)

// Board is an open session with one IO expansion board. A Board that has
// been returned by Open has passed the identity check and has been reset.
//
// A Board owns its bus handle exclusively and is not safe for concurrent
// use; callers sharing a Board must serialise access to it. Close must be
// called when the session ends, typically with defer.
type Board struct {
	conn Conn
	addr uint16
}

// OpenDefault opens the board at DefaultAddr on the given bus.
func OpenDefault(ctx context.Context, t Transport, bus int) (*Board, error) {
	return Open(ctx, t, bus, DefaultAddr)
}

// Open opens the bus, addresses the board at addr, verifies its identity
// and resets it. On any failure the bus handle is released and no Board is
// returned.
func Open(ctx context.Context, t Transport, bus int, addr uint16) (*Board, error) {
	conn, err := t.Open(bus)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	if err := conn.Bind(addr, false); err != nil {
		_ = conn.Close()
		return nil, &TransportError{Op: "bind", Err: err}
	}

	b := &Board{conn: conn, addr: addr}
	if err := b.begin(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	slog.Debug("hardware: board ready", "bus", bus, "addr", fmt.Sprintf("0x%02x", addr))
	return b, nil
}

// begin verifies product and vendor IDs, then resets the board.
func (b *Board) begin(ctx context.Context) error {
	pid, err := b.readByte(ctx, RegPID)
	if err != nil {
		return err
	}
	if pid != ExpectedPID {
		return fmt.Errorf("%w: pid=0x%02x, want 0x%02x", ErrDeviceNotDetected, pid, ExpectedPID)
	}
	vid, err := b.readByte(ctx, RegVID)
	if err != nil {
		return err
	}
	if vid != ExpectedVID {
		return fmt.Errorf("%w: vid=0x%02x, want 0x%02x", ErrSoftwareVersionMismatch, vid, ExpectedVID)
	}
	return b.Reset(ctx)
}

// Addr returns the I2C address the board was opened at.
func (b *Board) Addr() uint16 { return b.addr }

// Reset puts the board into its quiescent state: PWM off, every duty
// cycle zero, ADC off. PWM is disabled before the duty registers are
// rewritten.
func (b *Board) Reset(ctx context.Context) error {
	if err := b.EnablePWM(ctx, false); err != nil {
		return err
	}
	for _, ch := range Channels() {
		if err := b.SetPWMDuty(ctx, ch, 0); err != nil {
			return err
		}
	}
	return b.EnableADC(ctx, false)
}

// EnablePWM switches the PWM outputs on or off.
func (b *Board) EnablePWM(ctx context.Context, on bool) error {
	return b.writeBlock(ctx, RegPWMCtrl, []byte{ctrlByte(on)})
}

// SetPWMFreq sets the PWM frequency shared by all four channels.
// It panics if freq is outside [MinPWMFreq, MaxPWMFreq].
func (b *Board) SetPWMFreq(ctx context.Context, freq uint16) error {
	enc := EncodeFreq(freq)
	return b.writeBlock(ctx, RegPWMFreq, enc[:])
}

// SetPWMDuty sets the duty cycle of one channel. It panics if duty is
// outside [0.0, 1.0] or ch is not a valid channel.
func (b *Board) SetPWMDuty(ctx context.Context, ch Channel, duty float32) error {
	reg := ch.DutyReg()
	enc := EncodeDuty(duty)
	return b.writeBlock(ctx, reg, enc[:])
}

// EnableADC switches ADC sampling on or off.
func (b *Board) EnableADC(ctx context.Context, on bool) error {
	return b.writeBlock(ctx, RegADCCtrl, []byte{ctrlByte(on)})
}

// ADCValue returns the latest sample of one ADC channel, nominally in
// [0, MaxADCValue]. Sampling must have been enabled with EnableADC; the
// board is not checked, so a disabled ADC reads back stale or zero values.
func (b *Board) ADCValue(ctx context.Context, ch Channel) (uint16, error) {
	reg := ch.ADCReg()
	buf, err := b.conn.ReadBlockData(ctx, reg, 2)
	if err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	v, err := DecodeADC(buf)
	if err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return v, nil
}

// ADCValues reads every channel in turn.
func (b *Board) ADCValues(ctx context.Context) ([NumChannels]uint16, error) {
	var out [NumChannels]uint16
	for _, ch := range Channels() {
		v, err := b.ADCValue(ctx, ch)
		if err != nil {
			return out, err
		}
		out[ch] = v
	}
	return out, nil
}

// Identity reads the identification registers.
func (b *Board) Identity(ctx context.Context) (Identity, error) {
	var id Identity
	var err error
	if id.SlaveAddr, err = b.readByte(ctx, RegSlaveAddr); err != nil {
		return Identity{}, err
	}
	if id.PID, err = b.readByte(ctx, RegPID); err != nil {
		return Identity{}, err
	}
	if id.VID, err = b.readByte(ctx, RegVID); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Close ends the session. It makes a best-effort attempt to reset the
// board, discarding any error, and then releases the bus handle. Calling
// Close more than once is a no-op.
func (b *Board) Close() {
	if b.conn == nil {
		return
	}
	if err := b.Reset(context.Background()); err != nil {
		slog.Debug("hardware: reset on close failed", "addr", fmt.Sprintf("0x%02x", b.addr), "err", err)
	}
	if err := b.conn.Close(); err != nil {
		slog.Debug("hardware: release bus failed", "addr", fmt.Sprintf("0x%02x", b.addr), "err", err)
	}
	b.conn = nil
}

func (b *Board) readByte(ctx context.Context, reg Register) (byte, error) {
	v, err := b.conn.ReadByteData(ctx, reg)
	if err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return v, nil
}

func (b *Board) writeBlock(ctx context.Context, reg Register, data []byte) error {
	if err := b.conn.WriteBlockData(ctx, reg, data); err != nil {
		return &TransportError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}
