package i2cbus

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/time/rate"
	"tinygo.org/x/drivers"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

// ErrTenBit is returned by Bind on buses that only address 7-bit slaves.
var ErrTenBit = errors.New("i2c: 10-bit addressing not supported by this backend")

// TxConn frames register transfers over a plain I2C bus: a read writes the
// register offset and reads n bytes after a repeated start, a write sends
// the register offset followed by the data.
type TxConn struct {
	bus     drivers.I2C
	closer  io.Closer // optional; released by Close
	limiter *rate.Limiter
	addr    uint16
	bound   bool
}

// NewTxConn returns a Conn over bus. closer and limiter may be nil.
func NewTxConn(bus drivers.I2C, closer io.Closer, limiter *rate.Limiter) *TxConn {
	return &TxConn{bus: bus, closer: closer, limiter: limiter}
}

func (c *TxConn) Bind(addr uint16, tenBit bool) error {
	if tenBit {
		return ErrTenBit
	}
	if addr > 0x7F {
		return fmt.Errorf("i2c: invalid 7-bit address 0x%02x", addr)
	}
	c.addr = addr
	c.bound = true
	return nil
}

func (c *TxConn) ReadByteData(ctx context.Context, reg hardware.Register) (byte, error) {
	b, err := c.ReadBlockData(ctx, reg, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *TxConn) ReadBlockData(ctx context.Context, reg hardware.Register, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("i2c: invalid read length %d", n)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	r := make([]byte, n)
	if err := c.bus.Tx(c.addr, []byte{reg}, r); err != nil {
		return nil, fmt.Errorf("i2c: read 0x%02x reg=0x%02x: %w", c.addr, reg, err)
	}
	return r, nil
}

func (c *TxConn) WriteBlockData(ctx context.Context, reg hardware.Register, data []byte) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	if err := c.bus.Tx(c.addr, w, nil); err != nil {
		return fmt.Errorf("i2c: write 0x%02x reg=0x%02x: %w", c.addr, reg, err)
	}
	return nil
}

func (c *TxConn) Close() error {
	c.bound = false
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *TxConn) wait(ctx context.Context) error {
	if !c.bound {
		return errors.New("i2c: no slave address bound")
	}
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// txTransport hands out TxConns over an already configured bus, such as a
// TinyGo machine.I2C. The bus number passed to Open is ignored.
type txTransport struct {
	bus drivers.I2C
}

// FromTx returns a Transport whose connections all use bus.
func FromTx(bus drivers.I2C) hardware.Transport {
	return txTransport{bus: bus}
}

func (t txTransport) Open(int) (hardware.Conn, error) {
	return NewTxConn(t.bus, nil, nil), nil
}

var _ hardware.Conn = (*TxConn)(nil)
