package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
)

func TestDecodeImage(t *testing.T) {
	plain := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain base64", plain, "jpeg-bytes", false},
		{"data URL", "data:image/jpeg;base64," + plain, "jpeg-bytes", false},
		{"empty", "", "", true},
		{"invalid base64", "!!not-base64!!", "", true},
		{"empty payload", base64.StdEncoding.EncodeToString(nil), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeImage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("decodeImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no error", nil, http.StatusOK},
		{"invalid details", resolve.ErrInvalidDetails, http.StatusUnprocessableEntity},
		{"race exhausted", resolve.ErrRaceExhausted, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeStatus(resolve.Outcome{}, tt.err); got != tt.want {
				t.Errorf("outcomeStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := sanitizeForLog("line1\nline2\rline3")
	if got != "line1line2line3" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}
