//go:build linux

package i2cbus

import "github.com/thinkier/dfr-io-hat/internal/hardware"

func newSMBus() (hardware.Transport, error) { return SMBus{}, nil }

func newRDWR() (hardware.Transport, error) { return RDWR{}, nil }
