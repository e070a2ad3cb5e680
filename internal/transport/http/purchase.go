package http

import (
	"context"
	"net/http"

	"github.com/Dsek-LTH/new-web/internal/app"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

// Purchaser is the minimal interface needed to start a cart payment.
type Purchaser interface {
	PurchaseCart(ctx context.Context, ident domain.Identification, idempotencyKey string) (app.PurchaseResult, error)
}

// HandlePurchaseCart returns an HTTP handler for POST /cart/purchase. The
// caller supplies the payment idempotency key in the Idempotency-Key header;
// retrying with the same key will not double-charge.
func HandlePurchaseCart(svc Purchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			writeError(w, http.StatusBadRequest, codeIdempotencyRequired, "Idempotency-Key header is required")
			return
		}

		result, err := svc.PurchaseCart(r.Context(), identificationFrom(r), key)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, purchaseResponse{
			IntentID:     result.IntentID,
			ClientSecret: result.ClientSecret,
			Amount:       result.Amount,
			Fee:          result.Fee,
		})
	}
}

type purchaseResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Fee          int64  `json:"fee"`
}
