package hardware

import (
	"fmt"
	"strconv"
)

// Channel selects one of the four PWM outputs and the matching ADC input.
type Channel uint8

const (
	Ch0 Channel = iota
	Ch1
	Ch2
	Ch3
)

// NumChannels is the number of PWM/ADC channel pairs on the board.
const NumChannels = 4

var (
	dutyRegs = [NumChannels]Register{RegPWMDuty0, RegPWMDuty1, RegPWMDuty2, RegPWMDuty3}
	adcRegs  = [NumChannels]Register{RegADCValue0, RegADCValue1, RegADCValue2, RegADCValue3}
)

// Channels returns every channel in ascending order.
func Channels() [NumChannels]Channel {
	return [NumChannels]Channel{Ch0, Ch1, Ch2, Ch3}
}

// ParseChannel parses a decimal channel number ("0" to "3").
func ParseChannel(s string) (Channel, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= NumChannels {
		return 0, fmt.Errorf("hardware: invalid channel %q", s)
	}
	return Channel(n), nil
}

// Valid reports whether c is one of Ch0 to Ch3.
func (c Channel) Valid() bool { return c < NumChannels }

func (c Channel) String() string {
	return "ch" + strconv.Itoa(int(c))
}

// DutyReg returns the duty register for c. It panics if c is not a valid channel.
func (c Channel) DutyReg() Register {
	c.mustValid()
	return dutyRegs[c]
}

// ADCReg returns the ADC value register for c. It panics if c is not a valid channel.
func (c Channel) ADCReg() Register {
	c.mustValid()
	return adcRegs[c]
}

func (c Channel) mustValid() {
	if !c.Valid() {
		panic(fmt.Sprintf("hardware: invalid channel %d", uint8(c)))
	}
}
