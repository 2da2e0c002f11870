package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/i-m-alive/Visitor-Log-Book/internal/metrics"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
)

// ScanHandler handles checkpoint scans.
type ScanHandler struct {
	engine   *resolve.Engine
	embedder Embedder
	logger   *slog.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(engine *resolve.Engine, embedder Embedder, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		engine:   engine,
		embedder: embedder,
		logger:   logger,
	}
}

// scanRequest is the body of all scan-style endpoints. Details are only
// needed when the scan is expected to enroll.
type scanRequest struct {
	Image   string                   `json:"image"`
	Details *registry.VisitorDetails `json:"details,omitempty"`
}

// decodeScan parses the request body, decodes the image and extracts a face
// embedding. It writes the error response itself and returns ok=false when
// the request cannot proceed.
func (h *ScanHandler) decodeScan(w http.ResponseWriter, r *http.Request) (scanRequest, []byte, []float32, bool) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return req, nil, nil, false
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return req, nil, nil, false
	}

	embedding, err := h.embedder.ExtractFace(r.Context(), image)
	if err != nil {
		h.logger.Error("face extraction failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "face extraction failed")
		return req, nil, nil, false
	}
	if embedding == nil {
		metrics.ScansTotal.WithLabelValues(string(resolve.ActionNoFace)).Inc()
		respondJSON(w, http.StatusBadRequest, resolve.Outcome{
			Action:  resolve.ActionNoFace,
			Message: "No face detected. Please try again.",
		})
		return req, nil, nil, false
	}

	return req, image, embedding, true
}

// Scan resolves one checkpoint capture: exit for a recognized present
// visitor, entry when details are attached, need_details otherwise.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	req, image, embedding, ok := h.decodeScan(w, r)
	if !ok {
		return
	}

	outcome, err := h.engine.Resolve(r.Context(), resolve.Scan{
		Embedding: embedding,
		Image:     image,
		Details:   req.Details,
	})
	h.finish(w, outcome, err)
}

// CheckIn enrolls a new visitor directly, skipping the recognition step.
// Used by the kiosk once the visitor has filled the details form.
func (h *ScanHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, image, embedding, ok := h.decodeScan(w, r)
	if !ok {
		return
	}

	outcome, err := h.engine.Enroll(r.Context(), resolve.Scan{
		Embedding: embedding,
		Image:     image,
		Details:   req.Details,
	})
	h.finish(w, outcome, err)
}

// Exit resolves an exit-only scan. An unrecognized face is a 404, not an
// invitation to enroll.
func (h *ScanHandler) Exit(w http.ResponseWriter, r *http.Request) {
	_, _, embedding, ok := h.decodeScan(w, r)
	if !ok {
		return
	}

	outcome, err := h.engine.ResolveExit(r.Context(), embedding)
	if err == nil && outcome.Action == resolve.ActionNotRecognized {
		metrics.ScansTotal.WithLabelValues(string(outcome.Action)).Inc()
		respondJSON(w, http.StatusNotFound, outcome)
		return
	}
	h.finish(w, outcome, err)
}

func (h *ScanHandler) finish(w http.ResponseWriter, outcome resolve.Outcome, err error) {
	metrics.ScansTotal.WithLabelValues(string(outcome.Action)).Inc()

	switch outcome.Action {
	case resolve.ActionExit:
		metrics.PresentVisitors.Dec()
	case resolve.ActionEntry:
		metrics.PresentVisitors.Inc()
	}

	if err != nil {
		h.logger.Error("scan resolution failed",
			slog.String("action", string(outcome.Action)),
			slog.String("error", err.Error()),
		)
	}
	respondJSON(w, outcomeStatus(outcome, err), outcome)
}
