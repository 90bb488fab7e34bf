// Package models defines the data structures shared by the daemon's
// controller, config store and HTTP API.
package models

// NumChannels is the number of PWM and ADC channels on the board.
const NumChannels = 4

// PWMState is the desired configuration of the PWM block.
type PWMState struct {
	Enabled bool                 `json:"enabled"`
	FreqHz  int                  `json:"freq_hz"`
	Duty    [NumChannels]float64 `json:"duty"` // fraction in [0, 1]
}

// ADCState is the desired configuration of the ADC block.
type ADCState struct {
	Enabled bool `json:"enabled"`
}

// State is the full persisted board configuration.
type State struct {
	PWM PWMState `json:"pwm"`
	ADC ADCState `json:"adc"`
}

// DefaultState is what a freshly reset board looks like, with the PWM
// frequency at the top of the supported range.
func DefaultState() State {
	return State{
		PWM: PWMState{FreqHz: DefaultFreqHz},
	}
}

// Info describes the attached board and how the daemon reaches it.
type Info struct {
	Version   string `json:"version"`
	Backend   string `json:"backend"`
	Bus       int    `json:"bus"`
	Addr      string `json:"addr"` // "0x10"
	SlaveAddr string `json:"slave_addr"`
	PID       string `json:"pid"`
	VID       string `json:"vid"`
	Mock      bool   `json:"mock"`
}

// ADCReading is a single conversion result.
type ADCReading struct {
	Channel int    `json:"channel"`
	Value   uint16 `json:"value"` // 0..1023
}

// StatusResponse is the body of GET /api.
type StatusResponse struct {
	State State        `json:"state"`
	Info  Info         `json:"info"`
	ADC   []ADCReading `json:"adc,omitempty"`
}
