package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON body every failing endpoint returns. Code is a stable
// machine-readable identifier; Meta carries failure-specific context such as
// the affected table or a failed-chunk path.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON renders payload with the given status. A nil payload writes the
// status line and headers only.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &Error{Code: code, Message: message, Meta: meta})
}
