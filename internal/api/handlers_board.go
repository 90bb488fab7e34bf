package api

import (
	"net/http"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusResponse{
		State: h.ctrl.State(),
		Info:  h.ctrl.Info(),
	})
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Info())
}

func (h *Handlers) setPWM(w http.ResponseWriter, r *http.Request) {
	var upd models.PWMUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	state, appErr := h.ctrl.SetPWM(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) setDuty(w http.ResponseWriter, r *http.Request) {
	ch, appErr := channelParam(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	var upd models.DutyUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	state, appErr := h.ctrl.SetDuty(r.Context(), ch, upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) setADC(w http.ResponseWriter, r *http.Request) {
	var upd models.ADCUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	state, appErr := h.ctrl.SetADC(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) getADCAll(w http.ResponseWriter, r *http.Request) {
	readings, appErr := h.ctrl.ReadADCAll(r.Context())
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (h *Handlers) getADC(w http.ResponseWriter, r *http.Request) {
	ch, appErr := channelParam(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	reading, appErr := h.ctrl.ReadADC(r.Context(), ch)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.Reset(r.Context())
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
