// Package api holds the JSON envelope shared by every handler.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sebuszqo/ezwallet/internal/logger"
)

const refreshedTokenMessage = "Access token has been refreshed. Remember to copy the new one in the headers of subsequent calls"

type refreshedKey struct{}

// WithRefreshedToken marks the request as having received a new access token.
func WithRefreshedToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshedKey{}, true)
}

func tokenWasRefreshed(ctx context.Context) bool {
	refreshed, _ := ctx.Value(refreshedKey{}).(bool)
	return refreshed
}

type dataEnvelope struct {
	Data                  interface{} `json:"data"`
	RefreshedTokenMessage string      `json:"refreshedTokenMessage,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && r != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("JSON encoding error")
	}
}

// Data writes {data, refreshedTokenMessage?}.
func Data(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	envelope := dataEnvelope{Data: data}
	if r != nil && tokenWasRefreshed(r.Context()) {
		envelope.RefreshedTokenMessage = refreshedTokenMessage
	}
	respondJSON(w, r, status, envelope)
}

// Message writes {message} for validation and business rule failures.
func Message(w http.ResponseWriter, status int, message string) {
	respondJSON(w, nil, status, map[string]string{"message": message})
}

// Error writes {error} for authorization and internal failures.
func Error(w http.ResponseWriter, status int, message string) {
	respondJSON(w, nil, status, map[string]string{"error": message})
}
