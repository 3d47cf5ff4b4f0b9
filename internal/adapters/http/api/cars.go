// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rarespot/rarespot/internal/domain/model"
)

// CarDependencies defines the interface for car lookups.
type CarDependencies interface {
	Lookup(ctx context.Context, carSlug string) (model.NormalizedRecord, bool)
}

// CarsHandler handles car detail requests.
type CarsHandler struct {
	deps CarDependencies
}

// NewCarsHandler creates a new cars handler.
func NewCarsHandler(deps CarDependencies) *CarsHandler {
	return &CarsHandler{deps: deps}
}

// HandleGetCar handles GET /cars/{car_slug} requests. It serves the most
// recently normalized record for the car from the in-memory cache.
func (h *CarsHandler) HandleGetCar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_car"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/cars/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, ok := h.deps.Lookup(r.Context(), slug)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
