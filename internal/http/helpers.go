package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// periodSelection reads the period and offset query parameters,
// falling back to the stored settings when a parameter is absent.
func (s *Server) periodSelection(r *http.Request) (core.PeriodKind, int, error) {
	settings, err := s.service.Settings(r.Context())
	if err != nil {
		return "", 0, err
	}

	kind := settings.Period
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		parsed, err := core.ParsePeriodKind(v)
		if err != nil {
			return "", 0, err
		}
		kind = parsed
	}

	offset := settings.MonthOffset
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return "", 0, fmt.Errorf("invalid offset %q", v)
		}
		offset = parsed
	}

	return kind, offset, nil
}

// idFromPath extracts the trailing UUID from paths like
// /api/transactions/{id}.
func idFromPath(path, prefix string) (uuid.UUID, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func selectionKey(kind core.PeriodKind, offset int) string {
	return string(kind) + ":" + strconv.Itoa(offset)
}
