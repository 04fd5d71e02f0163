package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/model"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// envelope is the wire form of model.Envelope on the writing side.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  model.FieldErrors `json:"errors,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// jsonResponse writes a successful envelope carrying data.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// jsonMessage writes a successful envelope whose data is {message}.
func jsonMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Success: true, Data: model.Message{Message: message}, Message: message})
}

// jsonError writes a failed envelope.
func jsonError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Message: message})
}

// jsonValidation writes a 400 envelope listing per-field problems.
func jsonValidation(w http.ResponseWriter, errs model.FieldErrors) {
	writeEnvelope(w, http.StatusBadRequest, envelope{Message: "validation failed", Errors: errs})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}
