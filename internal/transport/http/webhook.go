package http

import (
	"context"
	"io"
	"net/http"
)

// IntentVerifier verifies a webhook payload's signature and extracts a
// succeeded payment intent id, if the event carries one.
type IntentVerifier interface {
	SucceededIntent(payload []byte, signature string) (intentID string, ok bool, err error)
}

// PaymentConfirmer settles a cart after its payment intent succeeded.
type PaymentConfirmer interface {
	HandlePaymentSucceeded(ctx context.Context, intentID string) error
}

const maxWebhookBody = 64 << 10

// HandleStripeWebhook returns an HTTP handler for POST /webhooks/stripe.
// Unverifiable payloads are rejected with 400 so Stripe retries; verified
// events of other types are acknowledged and ignored.
func HandleStripeWebhook(verifier IntentVerifier, confirmer PaymentConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable payload")
			return
		}

		intentID, ok, err := verifier.SucceededIntent(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidSignature, "signature verification failed")
			return
		}
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := confirmer.HandlePaymentSucceeded(r.Context(), intentID); err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
