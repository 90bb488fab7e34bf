package hardware

import (
	"fmt"
)

// Register addresses of the IO expansion board. Multi-byte registers span
// two consecutive offsets and are transferred as a single block.
const (
	RegSlaveAddr Register = 0x00 // I2C slave address currently in use
	RegPID       Register = 0x01 // Product ID (expected ExpectedPID)
	RegVID       Register = 0x02 // Vendor ID / firmware revision (expected ExpectedVID)
	RegPWMCtrl   Register = 0x03 // PWM output enable (0x01 on, 0x00 off)
	RegPWMFreq   Register = 0x04 // Board-wide PWM frequency, big-endian uint16 (0x04-0x05)
	RegPWMDuty0  Register = 0x06 // Channel 0 duty (0x06-0x07)
	RegPWMDuty1  Register = 0x08
	RegPWMDuty2  Register = 0x0A
	RegPWMDuty3  Register = 0x0C
	RegADCCtrl   Register = 0x0E // ADC sampling enable (0x01 on, 0x00 off)
	RegADCValue0 Register = 0x0F // Channel 0 sample, big-endian uint16 (0x0F-0x10)
	RegADCValue1 Register = 0x11
	RegADCValue2 Register = 0x13
	RegADCValue3 Register = 0x15
)

// Identity constants reported by a compatible board.
const (
	ExpectedPID byte = 0xDF
	ExpectedVID byte = 0x10
)

// DefaultAddr is the factory-default 7-bit I2C address of the board.
const DefaultAddr uint16 = 0x10

// MaxAddr is the highest 7-bit I2C address. The board is always bound in
// 7-bit mode.
const MaxAddr uint16 = 0x7F

// Parameter ranges accepted by the board.
const (
	MinPWMFreq  uint16 = 1
	MaxPWMFreq  uint16 = 1000
	MaxADCValue uint16 = 1023
)

// Control register values.
const (
	ctrlOff byte = 0x00
	ctrlOn  byte = 0x01
)

// ValidDuty reports whether duty lies in [0.0, 1.0]. NaN is rejected.
func ValidDuty(duty float32) bool {
	return duty >= 0 && duty <= 1
}

// ValidFreq reports whether freq lies in [MinPWMFreq, MaxPWMFreq].
func ValidFreq(freq uint16) bool {
	return freq >= MinPWMFreq && freq <= MaxPWMFreq
}

// ValidAddr reports whether addr is a usable 7-bit board address.
func ValidAddr(addr uint) bool {
	return addr <= uint(MaxAddr)
}

// EncodeDuty converts a duty cycle in [0.0, 1.0] to the two bytes written to
// a duty register. It panics if duty is out of range.
//
// The second byte is (scaled*10)%10, which is always zero; the board
// firmware expects it anyway.
func EncodeDuty(duty float32) [2]byte {
	if !ValidDuty(duty) {
		panic(fmt.Sprintf("hardware: duty %v out of range [0, 1]", duty))
	}
	scaled := uint16(duty * 100)
	return [2]byte{byte(scaled), byte((scaled * 10) % 10)}
}

// EncodeFreq converts a PWM frequency in Hz to its big-endian register bytes.
// It panics if freq is outside [MinPWMFreq, MaxPWMFreq].
func EncodeFreq(freq uint16) [2]byte {
	if !ValidFreq(freq) {
		panic(fmt.Sprintf("hardware: frequency %d out of range [%d, %d]", freq, MinPWMFreq, MaxPWMFreq))
	}
	return [2]byte{byte(freq >> 8), byte(freq)}
}

// DecodeADC decodes a big-endian ADC sample. Only the first two bytes are used.
func DecodeADC(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("hardware: short ADC read: got %d bytes, want 2", len(b))
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func ctrlByte(on bool) byte {
	if on {
		return ctrlOn
	}
	return ctrlOff
}
