package hardware

import (
	"errors"
	"fmt"
)

// Identity check failures returned by Open. Both are wrapped with the byte
// actually read; match them with errors.Is.
var (
	ErrDeviceNotDetected       = errors.New("hardware: device not detected")
	ErrSoftwareVersionMismatch = errors.New("hardware: firmware/software version mismatch")
)

// TransportError is returned when a bus operation fails. The underlying bus
// error is available through Unwrap.
type TransportError struct {
	Op  string   // "open", "bind", "read", "write" or "close"
	Reg Register // register involved, if Op is "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	switch e.Op {
	case "read", "write":
		return fmt.Sprintf("hardware: %s reg=0x%02x: %v", e.Op, e.Reg, e.Err)
	default:
		return fmt.Sprintf("hardware: %s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
