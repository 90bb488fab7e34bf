package config

import (
	"github.com/thinkier/dfr-io-hat/internal/models"
)

// normalizeState fills defaults for fields an older or hand-written config
// file may omit. Out-of-range values are left for State.Validate to reject.
func normalizeState(state *models.State) {
	if state.PWM.FreqHz == 0 {
		state.PWM.FreqHz = models.DefaultFreqHz
	}
}
