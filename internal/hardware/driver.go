// Package hardware implements the protocol layer for the DFRobot IO expansion
// board: the register map, parameter encoding, and the Board session that
// verifies device identity and returns the board to a safe state on teardown.
//
// The I2C bus itself is consumed through the Transport and Conn interfaces;
// concrete buses live in package i2cbus.
package hardware

import "context"

// Register is an I2C register address on the board.
type Register = byte

// Transport opens handles to numbered I2C buses.
type Transport interface {
	// Open opens bus number bus (e.g. 1 for /dev/i2c-1).
	Open(bus int) (Conn, error)
}

// Conn is an open bus handle. A Conn has exactly one owner and is not safe
// for concurrent use.
type Conn interface {
	// Bind addresses all following transactions to the slave at addr.
	Bind(addr uint16, tenBit bool) error

	// ReadByteData reads a single byte from reg.
	ReadByteData(ctx context.Context, reg Register) (byte, error)

	// ReadBlockData reads n bytes starting at reg in one transaction.
	ReadBlockData(ctx context.Context, reg Register, n int) ([]byte, error)

	// WriteBlockData writes data starting at reg in one transaction.
	WriteBlockData(ctx context.Context, reg Register, data []byte) error

	// Close releases the handle.
	Close() error
}

// Identity holds the identification registers read from the board.
type Identity struct {
	SlaveAddr byte
	PID       byte
	VID       byte
}
