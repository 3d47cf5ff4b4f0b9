// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rarespot/rarespot/internal/domain/dedupe"
	"github.com/rarespot/rarespot/internal/domain/model"
)

// SpotDependencies defines the interface for spot ingestion dependencies.
type SpotDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Submission) bool
}

// spotRequest mirrors the OpenAPI schema for POST /spots. Payload carries
// the raw oracle text; Raw carries an already-parsed record. At least one of
// the two must be present.
type spotRequest struct {
	SubmissionID string          `json:"submission_id"`
	Payload      string          `json:"payload,omitempty"`
	Raw          model.RawRecord `json:"raw,omitempty"`
	TS           string          `json:"ts"`
}

func (s spotRequest) validate() error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return errors.New("missing submission_id")
	case s.Payload == "" && len(s.Raw) == 0:
		return errors.New("one of payload or raw is required")
	case strings.TrimSpace(s.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, s.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

// SpotsHandler handles spot submissions.
type SpotsHandler struct {
	deps SpotDependencies
}

// NewSpotsHandler creates a new spots handler.
func NewSpotsHandler(deps SpotDependencies) *SpotsHandler {
	return &SpotsHandler{deps: deps}
}

// HandlePostSpot handles POST /spots requests.
func (h *SpotsHandler) HandlePostSpot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_spot"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req spotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts, _ := time.Parse(time.RFC3339, req.TS)
	sub := model.Submission{
		SubmissionID: req.SubmissionID,
		Payload:      req.Payload,
		Raw:          req.Raw,
		TS:           ts,
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.SubmissionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
