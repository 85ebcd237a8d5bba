package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gafdot/backend-consumo-energetico/internal/sensor"
)

// ingestRequest is the request body for POST /dados-sensores.
// Timestamp is optional; when absent the store assigns the current time.
type ingestRequest struct {
	SensorID    int64   `json:"sensor_id"`
	Temperatura float64 `json:"temperatura"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// handleIngestReading stores a new sensor reading and broadcasts it to
// connected WebSocket clients. Deliberately unauthenticated: sensors post
// here directly without holding a session.
func (s *Server) handleIngestReading(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "corpo JSON inválido")
		return
	}

	reading := sensor.Reading{
		SensorID:    req.SensorID,
		Temperatura: req.Temperatura,
	}
	if req.Timestamp != "" {
		ts, err := sensor.ParseTimestamp(req.Timestamp)
		if err != nil {
			writeBadRequest(w, "timestamp inválido")
			return
		}
		reading.Timestamp = ts
	}

	if _, err := s.sensors.Ingest(r.Context(), reading); err != nil {
		s.logger.Error("ingesting reading failed", "error", err)
		writeInternalError(w, "erro ao processar os dados")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "dados recebidos e armazenados com sucesso",
	})
}

// handleListReadings returns every stored reading in insertion order.
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.sensors.ListAll(r.Context())
	if err != nil {
		s.logger.Error("listing readings failed", "error", err)
		writeInternalError(w, "erro ao buscar os dados")
		return
	}

	writeJSON(w, http.StatusOK, readings)
}

// handleListReadingsByRange returns readings whose timestamp falls within
// the inclusive [inicio, fim] range given as query parameters.
func (s *Server) handleListReadingsByRange(w http.ResponseWriter, r *http.Request) {
	inicio := r.URL.Query().Get("inicio")
	fim := r.URL.Query().Get("fim")

	readings, err := s.sensors.ListBetween(r.Context(), inicio, fim)
	if err != nil {
		if errors.Is(err, sensor.ErrInvalidRange) {
			writeBadRequest(w, `os parâmetros de data "inicio" e "fim" são obrigatórios`)
			return
		}
		s.logger.Error("listing readings by range failed", "error", err)
		writeInternalError(w, "erro ao buscar os dados")
		return
	}

	writeJSON(w, http.StatusOK, readings)
}

// handleClearReadings deletes every stored reading. Irreversible, so the
// audit log records which account asked for it.
func (s *Server) handleClearReadings(w http.ResponseWriter, r *http.Request) {
	if err := s.sensors.ClearAll(r.Context()); err != nil {
		s.logger.Error("clearing readings failed", "error", err)
		writeInternalError(w, "erro ao limpar os dados")
		return
	}

	accountID, _ := r.Context().Value(ctxKeyAccountID).(int64)
	username := "unknown"
	if account, err := s.auth.Account(r.Context(), accountID); err == nil {
		username = account.Username
	}
	s.logger.Info("reading table cleared",
		"account_id", accountID,
		"username", username,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "dados da tabela foram limpos com sucesso",
	})
}
