//go:build linux

package i2cbus

import (
	"context"
	"fmt"

	"github.com/platinasystems/i2c"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

// SMBus opens /dev/i2c-N and talks to the board with SMBus byte-data and
// block-data transactions. Block transfers carry a leading length byte on
// the wire.
type SMBus struct{}

func (SMBus) Open(bus int) (hardware.Conn, error) {
	c := &smbusConn{index: bus}
	if err := c.bus.Open(bus); err != nil {
		return nil, fmt.Errorf("i2c: smbus open bus %d: %w", bus, err)
	}
	return c, nil
}

type smbusConn struct {
	bus   i2c.Bus
	index int
	addr  uint16
	bound bool
}

func (c *smbusConn) Bind(addr uint16, tenBit bool) error {
	var err error
	if tenBit {
		err = c.bus.Set10BitAddressing()
	} else {
		err = c.bus.Set7BitAddressing()
	}
	if err != nil {
		return fmt.Errorf("i2c: smbus bus %d: %w", c.index, err)
	}
	if err := c.bus.SetSlaveAddress(int(addr)); err != nil {
		return fmt.Errorf("i2c: smbus bus %d addr 0x%02x: %w", c.index, addr, err)
	}
	c.addr = addr
	c.bound = true
	return nil
}

func (c *smbusConn) ReadByteData(ctx context.Context, reg hardware.Register) (byte, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	var data i2c.SMBusData
	if err := c.bus.Do(i2c.Read, reg, i2c.ByteData, &data); err != nil {
		return 0, fmt.Errorf("i2c: smbus 0x%02x reg=0x%02x: %w", c.addr, reg, err)
	}
	return data[0], nil
}

func (c *smbusConn) ReadBlockData(ctx context.Context, reg hardware.Register, n int) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if n <= 0 || n > i2c.BlockMax {
		return nil, fmt.Errorf("i2c: smbus invalid block length %d", n)
	}
	var data i2c.SMBusData
	data[0] = byte(n)
	if err := c.bus.Do(i2c.Read, reg, i2c.BlockData, &data); err != nil {
		return nil, fmt.Errorf("i2c: smbus 0x%02x reg=0x%02x: %w", c.addr, reg, err)
	}
	count := int(data[0])
	if count > i2c.BlockMax {
		count = i2c.BlockMax
	}
	out := make([]byte, count)
	copy(out, data[1:1+count])
	return out, nil
}

func (c *smbusConn) WriteBlockData(ctx context.Context, reg hardware.Register, b []byte) error {
	if err := c.ready(); err != nil {
		return err
	}
	if len(b) == 0 || len(b) > i2c.BlockMax {
		return fmt.Errorf("i2c: smbus invalid block length %d", len(b))
	}
	var data i2c.SMBusData
	data[0] = byte(len(b))
	copy(data[1:], b)
	if err := c.bus.Do(i2c.Write, reg, i2c.BlockData, &data); err != nil {
		return fmt.Errorf("i2c: smbus 0x%02x reg=0x%02x: %w", c.addr, reg, err)
	}
	return nil
}

func (c *smbusConn) Close() error {
	c.bound = false
	return c.bus.Close()
}

func (c *smbusConn) ready() error {
	if !c.bound {
		return fmt.Errorf("i2c: smbus bus %d: no slave address bound", c.index)
	}
	return nil
}
