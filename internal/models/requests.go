package models

// Frequency and duty bounds accepted by the board.
const (
	MinFreqHz     = 1
	MaxFreqHz     = 1000
	DefaultFreqHz = 1000
)

// PWMUpdate is the PATCH body for the PWM block. Duty entries that are
// nil leave the channel untouched.
type PWMUpdate struct {
	Enabled *bool      `json:"enabled,omitempty"`
	FreqHz  *int       `json:"freq_hz,omitempty"`
	Duty    []*float64 `json:"duty,omitempty"`
}

// DutyUpdate is the PATCH body for a single PWM channel.
type DutyUpdate struct {
	Duty *float64 `json:"duty,omitempty"`
}

// ADCUpdate is the PATCH body for the ADC block.
type ADCUpdate struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// Validate checks the update against the board's limits.
func (u PWMUpdate) Validate() *AppError {
	if u.FreqHz != nil {
		if err := ValidateFreq(*u.FreqHz); err != nil {
			return err
		}
	}
	if len(u.Duty) > NumChannels {
		return ErrBadRequestField("duty", "at most 4 duty values allowed")
	}
	for _, d := range u.Duty {
		if d == nil {
			continue
		}
		if err := ValidateDuty(*d); err != nil {
			return err
		}
	}
	return nil
}

// Validate requires a duty value within [0, 1].
func (u DutyUpdate) Validate() *AppError {
	if u.Duty == nil {
		return ErrBadRequestField("duty", "duty is required")
	}
	return ValidateDuty(*u.Duty)
}

// Validate checks a whole state, e.g. one loaded from disk.
func (s State) Validate() *AppError {
	if err := ValidateFreq(s.PWM.FreqHz); err != nil {
		return err
	}
	for _, d := range s.PWM.Duty {
		if err := ValidateDuty(d); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFreq checks f is an accepted PWM frequency.
func ValidateFreq(f int) *AppError {
	if f < MinFreqHz || f > MaxFreqHz {
		return ErrBadRequestField("freq_hz", "freq_hz must be between 1 and 1000")
	}
	return nil
}

// ValidateDuty checks d is a duty fraction. NaN fails both comparisons
// and is rejected.
func ValidateDuty(d float64) *AppError {
	if !(d >= 0 && d <= 1) {
		return ErrBadRequestField("duty", "duty must be between 0 and 1")
	}
	return nil
}
