//go:build !linux

package i2cbus

import (
	"errors"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

var errUnsupported = errors.New("i2c: backend unsupported on this platform")

func newSMBus() (hardware.Transport, error) { return nil, errUnsupported }

func newRDWR() (hardware.Transport, error) { return nil, errUnsupported }
