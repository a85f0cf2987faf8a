package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/pkg/logger"
)

// MatchHandler serves single-match reads and score reports.
type MatchHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies, log logger.Logger) *MatchHandler {
	return &MatchHandler{deps: deps, logger: log}
}

// HandleGetMatch handles GET /matches/{id}.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	m, err := h.deps.Match(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatch(m))
}

// HandlePutResult handles PUT /matches/{id}/result. A stored score whose
// advancement was only partly applied still answers 200 with partial set.
func (h *MatchHandler) HandlePutResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_result"
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req resultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, h.logger, op, badRequest(op, err))
		return
	}
	if req.Score1 == nil || req.Score2 == nil {
		writeFailure(r.Context(), w, h.logger, op, badRequest(op, errors.New("score1 and score2 are required")))
		return
	}

	out, err := h.deps.ReportResult(r.Context(), service.ReportInput{
		MatchID:         id,
		Score1:          *req.Score1,
		Score2:          *req.Score2,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil && out.Match.ID == "" {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	if err != nil {
		// The score is stored; only follow-up work failed.
		h.logger.Error(r.Context(), "follow-up after score write failed",
			logger.String("match", id), logger.Error(err))
		out.Partial = true
	}
	writeJSON(w, http.StatusOK, toOutcome(out, true))
}
