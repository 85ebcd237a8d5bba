package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The route surface mirrors the original service: registration, login and
// sensor data ingest are open; reading, time-range queries and the bulk
// clear require a session token. The write/read asymmetry (anyone can
// ingest, only authenticated clients can read or clear) is deliberate and
// preserved.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)

	r.Post("/dados-sensores", s.handleIngestReading)

	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/dados-sensores", s.handleListReadings)
		r.Get("/dados-sensores/tempo", s.handleListReadingsByRange)
		r.Delete("/limpar-dados", s.handleClearReadings)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
