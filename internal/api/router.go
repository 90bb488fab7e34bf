package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and returns the main HTTP router. authMW guards every
// route; pass nil to leave the API open.
func NewRouter(ctrl Controller, bus EventBus, authMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus}

	r.Group(func(r chi.Router) {
		if authMW != nil {
			r.Use(authMW)
		}

		r.Get("/api", h.getStatus)
		r.Get("/api/", h.getStatus)
		r.Get("/api/info", h.getInfo)

		// PWM
		r.Patch("/api/pwm", h.setPWM)
		r.Patch("/api/pwm/{ch}", h.setDuty)

		// ADC
		r.Patch("/api/adc", h.setADC)
		r.Get("/api/adc", h.getADCAll)
		r.Get("/api/adc/{ch}", h.getADC)

		r.Post("/api/reset", h.reset)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
