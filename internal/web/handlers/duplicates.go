package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
	"github.com/i-m-alive/Visitor-Log-Book/internal/duplicates"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

// DuplicatesHandler builds the repeat-enrollment report. The index is
// rebuilt per request from the full history; visitor volumes are small
// enough that this stays cheap.
type DuplicatesHandler struct {
	store  registry.Reader
	cfg    *config.MatchConfig
	logger *slog.Logger
}

// NewDuplicatesHandler creates a new duplicates handler.
func NewDuplicatesHandler(store registry.Reader, cfg *config.MatchConfig, logger *slog.Logger) *DuplicatesHandler {
	return &DuplicatesHandler{store: store, cfg: cfg, logger: logger}
}

// Report returns groups of records that appear to belong to one person.
func (h *DuplicatesHandler) Report(w http.ResponseWriter, r *http.Request) {
	all, err := h.loadAll(r.Context())
	if err != nil {
		h.logger.Error("loading records for duplicate report failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to load visitor records")
		return
	}

	ix := duplicates.NewIndex()
	if err := ix.Build(all); err != nil {
		h.logger.Error("building duplicate index failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to build duplicate report")
		return
	}

	groups, err := ix.Groups(h.cfg.DuplicateThreshold, h.cfg.DuplicateNeighbors)
	if err != nil {
		h.logger.Error("duplicate grouping failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to build duplicate report")
		return
	}

	if groups == nil {
		groups = []duplicates.Group{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"groups":    groups,
		"threshold": h.cfg.DuplicateThreshold,
		"records":   ix.Count(),
	})
}

func (h *DuplicatesHandler) loadAll(ctx context.Context) ([]registry.Visitor, error) {
	var all []registry.Visitor
	offset := 0
	for {
		page, err := h.store.ListAll(ctx, defaultPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < defaultPageSize {
			return all, nil
		}
		offset += defaultPageSize
	}
}
