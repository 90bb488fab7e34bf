// Package api implements the HTTP REST API for the IO expansion board.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thinkier/dfr-io-hat/internal/events"
	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to drive the board.
type Controller interface {
	State() models.State
	Info() models.Info
	SetPWM(ctx context.Context, upd models.PWMUpdate) (models.State, *models.AppError)
	SetDuty(ctx context.Context, ch hardware.Channel, upd models.DutyUpdate) (models.State, *models.AppError)
	SetADC(ctx context.Context, upd models.ADCUpdate) (models.State, *models.AppError)
	ReadADC(ctx context.Context, ch hardware.Channel) (models.ADCReading, *models.AppError)
	ReadADCAll(ctx context.Context) ([]models.ADCReading, *models.AppError)
	Reset(ctx context.Context) (models.State, *models.AppError)
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan events.Event
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// channelParam reads the {ch} path parameter. Non-numbers are a bad
// request; numbers outside 0-3 name a channel that does not exist.
func channelParam(r *http.Request) (hardware.Channel, *models.AppError) {
	s := chi.URLParam(r, "ch")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.ErrBadRequest("invalid ch parameter")
	}
	if n < 0 || n >= hardware.NumChannels {
		return 0, models.ErrNotFound(fmt.Sprintf("channel %d not found", n))
	}
	return hardware.Channel(n), nil
}
