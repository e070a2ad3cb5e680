package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dsek-LTH/new-web/internal/app"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

// CartAdmitter is the minimal interface needed to admit a buyer to a cart.
type CartAdmitter interface {
	AddToCart(ctx context.Context, shoppableID string, ident domain.Identification) (domain.AddResult, error)
}

// CartLister is the minimal interface needed to read a buyer's cart.
type CartLister interface {
	ListCart(ctx context.Context, ident domain.Identification) ([]app.CartItem, error)
}

// CartSweeper clears expired holds and promotes queued buyers. The cart
// listing runs it first so freed stock moves before the cart is rendered.
type CartSweeper interface {
	SweepAndNotify(ctx context.Context) error
}

// HandleAddToCart returns an HTTP handler for POST /cart/{shoppableID}.
func HandleAddToCart(svc CartAdmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shoppableID := chi.URLParam(r, "shoppableID")
		if shoppableID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "shoppable id is required")
			return
		}

		result, err := svc.AddToCart(r.Context(), shoppableID, identificationFrom(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := addToCartResponse{Outcome: string(result.Outcome)}
		if result.Outcome == domain.PutInQueue {
			resp.QueuePosition = &result.QueuePosition
		}
		if result.Consumable != nil {
			resp.Consumable = &consumablePayload{
				ID:          result.Consumable.ID,
				ShoppableID: result.Consumable.ShoppableID,
				ExpiresAt:   result.Consumable.ExpiresAt,
				PurchasedAt: result.Consumable.PurchasedAt,
			}
		}

		status := http.StatusCreated
		if result.Outcome == domain.Reserved || result.Outcome == domain.PutInQueue {
			status = http.StatusAccepted
		}
		writeJSON(w, status, resp)
	}
}

// HandleListCart returns an HTTP handler for GET /cart. A nil sweeper skips
// the pre-listing sweep.
func HandleListCart(svc CartLister, sweeper CartSweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sweeper != nil {
			if err := sweeper.SweepAndNotify(r.Context()); err != nil {
				writeDomainError(w, err)
				return
			}
		}

		items, err := svc.ListCart(r.Context(), identificationFrom(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := cartResponse{Items: make([]cartItemPayload, 0, len(items))}
		for _, item := range items {
			resp.Items = append(resp.Items, cartItemPayload{
				ID:          item.Consumable.ID,
				ShoppableID: item.Consumable.ShoppableID,
				Name:        item.Name,
				Price:       item.Price,
				ExpiresAt:   item.Consumable.ExpiresAt,
			})
			resp.Total += item.Price
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type addToCartResponse struct {
	Outcome       string             `json:"outcome"`
	QueuePosition *int               `json:"queue_position,omitempty"`
	Consumable    *consumablePayload `json:"consumable,omitempty"`
}

type consumablePayload struct {
	ID          string     `json:"id"`
	ShoppableID string     `json:"shoppable_id"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
}

type cartResponse struct {
	Items []cartItemPayload `json:"items"`
	Total int64             `json:"total"`
}

type cartItemPayload struct {
	ID          string     `json:"id"`
	ShoppableID string     `json:"shoppable_id"`
	Name        string     `json:"name"`
	Price       int64      `json:"price"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
