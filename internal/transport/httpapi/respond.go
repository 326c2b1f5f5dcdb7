package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/NordCoder/latency-agent/internal/remote"
	status_agent "github.com/NordCoder/latency-agent/internal/services/status-agent"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorBody struct {
	Message       string `json:"message"`
	SetupRequired bool   `json:"setup_required,omitempty"`
	Retry         bool   `json:"retry,omitempty"`
	RemoteStatus  int    `json:"remote_status,omitempty"`
	Stale         any    `json:"stale,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// writeErr is the single place where domain and remote errors become HTTP
// answers.
func writeErr(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, envelope{Success: false, Data: body})
}

func classify(err error) (int, errorBody) {
	var (
		re *remote.RemoteError
		te *remote.TransportError
	)
	switch {
	case errors.Is(err, status_agent.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Message: err.Error()}
	case errors.Is(err, status_agent.ErrNotConfigured):
		return http.StatusConflict, errorBody{Message: "Latency Global is not configured", SetupRequired: true}
	case errors.Is(err, status_agent.ErrNoMonitor):
		return http.StatusConflict, errorBody{Message: "No monitor configured"}
	case remote.IsCredentialError(err):
		return http.StatusUnauthorized, errorBody{Message: "API key not configured or invalid", SetupRequired: true}
	case errors.As(err, &re):
		return http.StatusBadGateway, errorBody{Message: re.Message, RemoteStatus: re.Status, Retry: re.Status >= 500}
	case errors.As(err, &te):
		return http.StatusServiceUnavailable, errorBody{Message: te.Err.Error(), Retry: true}
	case errors.Is(err, remote.ErrEmptyResponse):
		return http.StatusBadGateway, errorBody{Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Message: "internal error"}
	}
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", status_agent.ErrInvalidInput, err)
	}
	return nil
}
