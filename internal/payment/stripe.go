// Package payment binds the shop's settlement contract to Stripe.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/Dsek-LTH/new-web/internal/app"
)

// StripeProvider implements app.PaymentProvider against the Stripe API.
// Amounts are öre; carts are charged in SEK.
type StripeProvider struct {
	api      *client.API
	currency string
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{
		api:      api,
		currency: string(stripe.CurrencySEK),
	}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, idempotencyKey string) (app.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(p.currency),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey)

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return app.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return app.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (p *StripeProvider) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := p.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("cancel payment intent: %w", err)
	}
	return nil
}

// WebhookVerifier checks Stripe webhook signatures and extracts confirmed
// payment intents.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// SucceededIntent verifies the payload signature and, for a
// payment_intent.succeeded event, returns the intent id. Other event types
// return ok=false with no error.
func (v *WebhookVerifier) SucceededIntent(payload []byte, signature string) (intentID string, ok bool, err error) {
	event, err := webhook.ConstructEvent(payload, signature, v.secret)
	if err != nil {
		return "", false, fmt.Errorf("verify webhook: %w", err)
	}
	if event.Type != "payment_intent.succeeded" {
		return "", false, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", false, fmt.Errorf("decode webhook intent: %w", err)
	}
	return intent.ID, true, nil
}
