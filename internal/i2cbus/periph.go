package i2cbus

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// Periph opens buses through periph.io's I2C registry.
type Periph struct{}

func (Periph) Open(bus int) (hardware.Conn, error) {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("i2c: periph host init: %w", err)
		}
	})
	if hostErr != nil {
		return nil, hostErr
	}
	bc, err := i2creg.Open(strconv.Itoa(bus))
	if err != nil {
		return nil, fmt.Errorf("i2c: open bus %d: %w", bus, err)
	}
	return NewTxConn(bc, bc, nil), nil
}
