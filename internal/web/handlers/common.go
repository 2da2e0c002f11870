// Package handlers implements the HTTP API of the visitor log book.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Embedder extracts a face embedding from a captured image. A nil embedding
// with a nil error means no face was detected.
type Embedder interface {
	ExtractFace(ctx context.Context, image []byte) ([]float32, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeImage decodes a base64 image field. Kiosk clients send data URLs
// ("data:image/jpeg;base64,..."); the prefix is stripped before decoding.
func decodeImage(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("image is required")
	}
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	return data, nil
}

// outcomeStatus maps a resolution outcome and error to an HTTP status.
func outcomeStatus(outcome resolve.Outcome, err error) int {
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrInvalidDetails):
			return http.StatusUnprocessableEntity
		case errors.Is(err, resolve.ErrRaceExhausted):
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusOK
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
