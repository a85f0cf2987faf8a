// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/kartcup/internal/adapters/http/swagger"
	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/ranking"
	"github.com/okian/kartcup/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Match(ctx context.Context, id string) (model.Match, error)
	ReportResult(ctx context.Context, in service.ReportInput) (service.Outcome, error)

	Bracket(ctx context.Context, tournamentID string, mode model.Mode) ([]model.Match, error)
	GenerateBracket(ctx context.Context, tournamentID string, mode model.Mode, seeds []string) ([]model.Match, error)
	GenerateBracketFromStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]model.Match, error)
	ResetStage(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage) (int, error)
	Reconcile(ctx context.Context, tournamentID string, mode model.Mode) (service.Outcome, error)

	CreateRoundRobin(ctx context.Context, tournamentID string, mode model.Mode, group string, players []string) ([]model.Match, error)
	Standings(ctx context.Context, tournamentID string, mode model.Mode, group string) ([]ranking.Result, error)
	OverallStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]ranking.Result, error)
	FinalsStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]service.FinalsStanding, error)
	TournamentPoints(ctx context.Context, tournamentID string) ([]service.PlayerPoints, error)
	RankTimeAttack(entries []service.TimeAttackEntry) ([]service.TimeAttackResult, error)
}

// Server wires HTTP routes for the tournament API.
type Server struct {
	healthHandler     *HealthHandler
	matchHandler      *MatchHandler
	tournamentHandler *TournamentHandler
	logger            logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request errors.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.matchHandler = NewMatchHandler(deps, s.logger)
	s.tournamentHandler = NewTournamentHandler(deps, s.logger)
	return s
}

// Router returns the chi router with every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.With(MetricsMiddleware("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	swagger.Register(r)

	r.Route("/matches/{id}", func(r chi.Router) {
		r.With(MetricsMiddleware("match")).Get("/", s.matchHandler.HandleGetMatch)
		r.With(MetricsMiddleware("result")).Put("/result", s.matchHandler.HandlePutResult)
	})

	r.With(MetricsMiddleware("time_attack")).Post("/time-attack/rank", s.tournamentHandler.HandleRankTimeAttack)

	r.Route("/tournaments/{tid}", func(r chi.Router) {
		r.With(MetricsMiddleware("points")).Get("/points", s.tournamentHandler.HandleGetPoints)

		r.Route("/{mode}", func(r chi.Router) {
			r.With(MetricsMiddleware("standings")).Get("/standings", s.tournamentHandler.HandleGetStandings)
			r.With(MetricsMiddleware("groups")).Post("/groups/{group}", s.tournamentHandler.HandlePostGroup)
			r.With(MetricsMiddleware("qualification")).Delete("/qualification", s.tournamentHandler.HandleResetQualification)

			r.Route("/bracket", func(r chi.Router) {
				r.Use(MetricsMiddleware("bracket"))
				r.Get("/", s.tournamentHandler.HandleGetBracket)
				r.Post("/", s.tournamentHandler.HandlePostBracket)
				r.Delete("/", s.tournamentHandler.HandleDeleteBracket)
			})
			r.With(MetricsMiddleware("finals")).Get("/finals", s.tournamentHandler.HandleGetFinals)
			r.With(MetricsMiddleware("reconcile")).Post("/reconcile", s.tournamentHandler.HandlePostReconcile)
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error onto its status and logs server faults.
func writeFailure(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}
