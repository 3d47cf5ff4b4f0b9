// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/salvage"
)

var validate = validator.New()

// ClassifyDependencies defines the interface for synchronous classification.
type ClassifyDependencies interface {
	Classify(ctx context.Context, imageB64 string, mime string) (model.NormalizedRecord, error)
}

// classifyRequest mirrors the OpenAPI schema for POST /classify.
type classifyRequest struct {
	ImageB64 string `json:"image_b64" validate:"required,base64"`
	Mime     string `json:"mime"      validate:"omitempty,oneof=image/jpeg image/png image/webp"`
}

// ClassifyHandler handles classification requests.
type ClassifyHandler struct {
	deps ClassifyDependencies
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps ClassifyDependencies) *ClassifyHandler {
	return &ClassifyHandler{deps: deps}
}

// HandleClassify handles POST /classify requests. The image is classified,
// salvaged and normalized synchronously; the scored record is returned and
// also fed into the ranking.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Classify(r.Context(), req.ImageB64, req.Mime)
	if err != nil {
		var unparsable *salvage.UnparsableResponseError
		if errors.As(err, &unparsable) {
			writeJSON(w, http.StatusUnprocessableEntity, classifyResponse{
				Success: false,
				Error:   "UnparsableResponse",
				Detail:  unparsable.Raw,
			})
			return
		}
		writeError(w, http.StatusBadGateway, "oracle_error", WrapKind(op, ErrUpstream, err))
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{Success: true, Car: &rec})
}
