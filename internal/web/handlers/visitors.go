package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

const defaultPageSize = 100

// VisitorsHandler serves the read-only registry views used by reception
// staff.
type VisitorsHandler struct {
	store  registry.Store
	logger *slog.Logger
}

// NewVisitorsHandler creates a new visitors handler.
func NewVisitorsHandler(store registry.Store, logger *slog.Logger) *VisitorsHandler {
	return &VisitorsHandler{store: store, logger: logger}
}

// List returns visitor records ordered by ascending ID. With ?present=true
// only currently checked-in visitors are returned; otherwise the full
// history, paged with ?limit and ?offset.
func (h *VisitorsHandler) List(w http.ResponseWriter, r *http.Request) {
	var visitors []registry.Visitor
	var err error

	if r.URL.Query().Get("present") == "true" {
		visitors, err = h.store.SnapshotPresent(r.Context())
	} else {
		limit := queryInt(r, "limit", defaultPageSize)
		offset := queryInt(r, "offset", 0)
		visitors, err = h.store.ListAll(r.Context(), limit, offset)
	}
	if err != nil {
		h.logger.Error("listing visitors failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to list visitors")
		return
	}

	if visitors == nil {
		visitors = []registry.Visitor{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"visitors": visitors,
		"count":    len(visitors),
	})
}

// PresentCount returns how many visitors are currently checked in.
func (h *VisitorsHandler) PresentCount(w http.ResponseWriter, r *http.Request) {
	present, err := h.store.CountPresent(r.Context())
	if err != nil {
		h.logger.Error("counting present visitors failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to count visitors")
		return
	}
	total, err := h.store.CountAll(r.Context())
	if err != nil {
		h.logger.Error("counting visitors failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to count visitors")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"present": present,
		"total":   total,
	})
}

// ByHost returns the present visitors waiting for the named host. Host
// names are matched without regard to case, diacritics or dashes.
func (h *VisitorsHandler) ByHost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "host name is required")
		return
	}

	visitors, err := h.store.FindPresentByHost(r.Context(), name)
	if err != nil {
		h.logger.Error("host lookup failed",
			slog.String("host", sanitizeForLog(name)),
			slog.String("error", err.Error()),
		)
		respondError(w, http.StatusInternalServerError, "failed to look up visitors")
		return
	}

	if visitors == nil {
		visitors = []registry.Visitor{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"visitors": visitors,
		"count":    len(visitors),
	})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}
