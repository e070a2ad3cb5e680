package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dsek-LTH/new-web/internal/app"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

// ShoppableAdmin is the minimal interface needed for admin shoppable
// endpoints.
type ShoppableAdmin interface {
	CreateShoppable(ctx context.Context, in app.CreateShoppableInput) (domain.Shoppable, error)
	ListShoppables(ctx context.Context) ([]domain.Shoppable, error)
	RemoveShoppable(ctx context.Context, shoppableID string) error
}

// HandleCreateShoppable returns an HTTP handler for POST /admin/shoppables.
func HandleCreateShoppable(svc ShoppableAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createShoppableRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		availableFrom, err := parseOptionalTime(req.AvailableFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidSaleWindow, "invalid available_from format")
			return
		}
		availableTo, err := parseOptionalTime(req.AvailableTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidSaleWindow, "invalid available_to format")
			return
		}

		shoppable, err := svc.CreateShoppable(r.Context(), app.CreateShoppableInput{
			Name:             req.Name,
			Price:            req.Price,
			Stock:            req.Stock,
			MaxAmountPerUser: req.MaxAmountPerUser,
			AvailableFrom:    availableFrom,
			AvailableTo:      availableTo,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toShoppableResponse(shoppable))
	}
}

// HandleListShoppables returns an HTTP handler for GET /admin/shoppables.
func HandleListShoppables(svc ShoppableAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shoppables, err := svc.ListShoppables(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]shoppableResponse, 0, len(shoppables))
		for _, s := range shoppables {
			resp = append(resp, toShoppableResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleRemoveShoppable returns an HTTP handler for
// DELETE /admin/shoppables/{shoppableID}.
func HandleRemoveShoppable(svc ShoppableAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shoppableID := chi.URLParam(r, "shoppableID")
		if shoppableID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "shoppable id is required")
			return
		}

		if err := svc.RemoveShoppable(r.Context(), shoppableID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

type createShoppableRequest struct {
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	Stock            int    `json:"stock"`
	MaxAmountPerUser int    `json:"max_amount_per_user"`
	AvailableFrom    string `json:"available_from"`
	AvailableTo      string `json:"available_to"`
}

type shoppableResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Price            int64      `json:"price"`
	Stock            int        `json:"stock"`
	MaxAmountPerUser int        `json:"max_amount_per_user"`
	AvailableFrom    time.Time  `json:"available_from"`
	AvailableTo      *time.Time `json:"available_to,omitempty"`
	RemovedAt        *time.Time `json:"removed_at,omitempty"`
}

func toShoppableResponse(s domain.Shoppable) shoppableResponse {
	return shoppableResponse{
		ID:               s.ID,
		Name:             s.Name,
		Price:            s.Price,
		Stock:            s.Stock,
		MaxAmountPerUser: s.MaxAmountPerUser,
		AvailableFrom:    s.AvailableFrom,
		AvailableTo:      s.AvailableTo,
		RemovedAt:        s.RemovedAt,
	}
}
