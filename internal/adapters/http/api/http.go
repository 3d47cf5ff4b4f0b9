// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rarespot/rarespot/internal/domain/dedupe"
	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Classify runs the synchronous photo classification pipeline.
	Classify(ctx context.Context, imageB64 string, mime string) (model.NormalizedRecord, error)

	// Enqueue pushes a submission for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, s model.Submission) bool

	// Read operations expose ranking data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, carSlug string) (Entry, error)
	Lookup(ctx context.Context, carSlug string) (model.NormalizedRecord, bool)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	classifyHandler    *ClassifyHandler
	spotsHandler       *SpotsHandler
	carsHandler        *CarsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		classifyHandler:    NewClassifyHandler(deps),
		spotsHandler:       NewSpotsHandler(deps),
		carsHandler:        NewCarsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("/spots", MetricsMiddleware(s.spotsHandler.HandlePostSpot, "spots"))
	mux.HandleFunc("/cars/", MetricsMiddleware(s.carsHandler.HandleGetCar, "cars"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// classifyResponse is the envelope returned by POST /classify. Either Car is
// set (success) or Error describes what went wrong, with Detail carrying the
// raw oracle text when salvage failed.
type classifyResponse struct {
	Success bool                    `json:"success"`
	Car     *model.NormalizedRecord `json:"car,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Detail  string                  `json:"detail,omitempty"`
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
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
