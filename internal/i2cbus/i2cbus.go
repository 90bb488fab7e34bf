// Package i2cbus provides the I2C bus backends used to reach the board.
//
// Three backends implement hardware.Transport:
//
//	smbus   Linux SMBus ioctls (github.com/platinasystems/i2c)
//	periph  periph.io host drivers
//	rdwr    raw Linux I2C_RDWR ioctls, rate limited
//
// Any tinygo.org/x/drivers I2C bus can be adapted with FromTx.
package i2cbus

import (
	"fmt"
	"sort"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

// Backend names accepted by New.
const (
	BackendSMBus  = "smbus"
	BackendPeriph = "periph"
	BackendRDWR   = "rdwr"
)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = BackendSMBus

var backends = map[string]func() (hardware.Transport, error){
	BackendSMBus:  newSMBus,
	BackendPeriph: func() (hardware.Transport, error) { return Periph{}, nil },
	BackendRDWR:   newRDWR,
}

// New returns the Transport for the named backend. An empty name selects
// DefaultBackend.
func New(name string) (hardware.Transport, error) {
	if name == "" {
		name = DefaultBackend
	}
	mk, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("i2c: unknown backend %q (want one of %v)", name, Names())
	}
	return mk()
}

// Names returns the known backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
