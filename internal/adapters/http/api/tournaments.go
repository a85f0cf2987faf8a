package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/ranking"
	"github.com/okian/kartcup/pkg/logger"
)

// TournamentHandler serves per-mode qualification and bracket routes.
type TournamentHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTournamentHandler creates a new tournament handler.
func NewTournamentHandler(deps Dependencies, log logger.Logger) *TournamentHandler {
	return &TournamentHandler{deps: deps, logger: log}
}

// HandleGetStandings handles GET /tournaments/{tid}/{mode}/standings[?group=].
// Without a group the standings span every group of the mode.
func (h *TournamentHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	var res []ranking.Result
	if group := strings.TrimSpace(r.URL.Query().Get("group")); group != "" {
		res, err = h.deps.Standings(r.Context(), tid, mode, group)
	} else {
		res, err = h.deps.OverallStandings(r.Context(), tid, mode)
	}
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toStandings(res))
}

// HandlePostGroup handles POST /tournaments/{tid}/{mode}/groups/{group}.
func (h *TournamentHandler) HandlePostGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_group"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, h.logger, op, badRequest(op, err))
		return
	}
	rows, err := h.deps.CreateRoundRobin(r.Context(), tid, mode, chi.URLParam(r, "group"), req.Players)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatches(rows))
}

// HandleResetQualification handles DELETE /tournaments/{tid}/{mode}/qualification.
func (h *TournamentHandler) HandleResetQualification(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "api.reset_qualification", model.StageQualification)
}

// HandleGetBracket handles GET /tournaments/{tid}/{mode}/bracket.
func (h *TournamentHandler) HandleGetBracket(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bracket"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	rows, err := h.deps.Bracket(r.Context(), tid, mode)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatches(rows))
}

// HandlePostBracket handles POST /tournaments/{tid}/{mode}/bracket.
func (h *TournamentHandler) HandlePostBracket(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bracket"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	var req bracketRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeFailure(r.Context(), w, h.logger, op, badRequest(op, err))
			return
		}
	}
	var rows []model.Match
	if len(req.Seeds) == 0 {
		rows, err = h.deps.GenerateBracketFromStandings(r.Context(), tid, mode)
	} else {
		rows, err = h.deps.GenerateBracket(r.Context(), tid, mode, req.Seeds)
	}
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatches(rows))
}

// HandleDeleteBracket handles DELETE /tournaments/{tid}/{mode}/bracket.
func (h *TournamentHandler) HandleDeleteBracket(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "api.reset_bracket", model.StageFinals)
}

func (h *TournamentHandler) reset(w http.ResponseWriter, r *http.Request, op string, stage model.Stage) {
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	n, err := h.deps.ResetStage(r.Context(), tid, mode, stage)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Deleted: n})
}

// HandleGetFinals handles GET /tournaments/{tid}/{mode}/finals.
func (h *TournamentHandler) HandleGetFinals(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_finals"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	res, err := h.deps.FinalsStandings(r.Context(), tid, mode)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toFinals(res))
}

// HandlePostReconcile handles POST /tournaments/{tid}/{mode}/reconcile.
func (h *TournamentHandler) HandlePostReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reconcile"
	tid, mode, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.Reconcile(r.Context(), tid, mode)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcome(out, false))
}

// HandleGetPoints handles GET /tournaments/{tid}/points.
func (h *TournamentHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_points"
	tid, _, err := scope(r)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	res, err := h.deps.TournamentPoints(r.Context(), tid)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoints(res))
}

// HandleRankTimeAttack handles POST /time-attack/rank.
func (h *TournamentHandler) HandleRankTimeAttack(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank_time_attack"
	var req timeAttackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, h.logger, op, badRequest(op, err))
		return
	}
	entries := make([]service.TimeAttackEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = service.TimeAttackEntry{PlayerID: e.PlayerID, Times: e.Times}
	}
	res, err := h.deps.RankTimeAttack(entries)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	out := make([]timeAttackResponse, len(res))
	for i, t := range res {
		out[i] = timeAttackResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}
