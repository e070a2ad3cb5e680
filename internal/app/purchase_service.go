package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dsek-LTH/new-web/internal/clock"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

// PurchaseRepository is the ledger access the settlement coordinator needs.
type PurchaseRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListCart(ctx context.Context, ident domain.Identification, now time.Time) ([]CartItem, error)
	// SetPaymentIntent stamps the intent id on exactly the given consumables,
	// skipping rows already purchased.
	SetPaymentIntent(ctx context.Context, consumableIDs []string, intentID string) error
	// MarkPurchasedByIntent sets purchased_at on exactly the holds carrying
	// the intent id, skipping already-purchased rows. Returns the number of
	// rows transitioned.
	MarkPurchasedByIntent(ctx context.Context, intentID string, now time.Time) (int, error)
}

// PaymentIntent is the provider-side payment attempt for one cart.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider is the narrow contract against the external payment
// service. Repeated CreateIntent calls with the same idempotency key must be
// treated by the provider as the same logical attempt.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, idempotencyKey string) (PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// TransactionFee is a card fee passed through to the buyer: the gross amount
// is grossed up so that the net after the provider takes Rate and Fixed equals
// the cart total.
type TransactionFee struct {
	Rate  decimal.Decimal
	Fixed int64
}

// DefaultTransactionFee matches European card pricing: 1.5 % plus 1.80 SEK.
func DefaultTransactionFee() TransactionFee {
	return TransactionFee{
		Rate:  decimal.NewFromFloat(0.015),
		Fixed: 180,
	}
}

// Apply returns the fee in öre added on top of a cart total.
func (f TransactionFee) Apply(total int64) int64 {
	if total <= 0 {
		return 0
	}
	one := decimal.NewFromInt(1)
	gross := decimal.NewFromInt(total + f.Fixed).
		Div(one.Sub(f.Rate)).
		Round(0)
	return gross.IntPart() - total
}

type PurchaseService struct {
	repo     PurchaseRepository
	provider PaymentProvider
	clock    clock.Clock
	logger   *log.Logger
	fee      *TransactionFee
}

type PurchaseServiceOption func(*PurchaseService)

// WithTransactionFee sets the pass-through card fee; by default no fee is
// added.
func WithTransactionFee(fee TransactionFee) PurchaseServiceOption {
	return func(s *PurchaseService) {
		s.fee = &fee
	}
}

func NewPurchaseService(repo PurchaseRepository, provider PaymentProvider, clk clock.Clock, logger *log.Logger, opts ...PurchaseServiceOption) *PurchaseService {
	if logger == nil {
		logger = log.Default()
	}
	svc := &PurchaseService{
		repo:     repo,
		provider: provider,
		clock:    clk,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PurchaseResult struct {
	IntentID     string
	ClientSecret string
	// Amount is the total charged, fee included, in öre.
	Amount int64
	Fee    int64
}

// PurchaseCart creates a payment attempt for the identification's current
// cart. A prior unresolved attempt is cancelled at the provider first, so at
// most one live intent exists per cart. The intent id is persisted onto the
// cart only after the provider call succeeded; a provider failure leaves the
// ledger untouched.
func (s *PurchaseService) PurchaseCart(ctx context.Context, ident domain.Identification, idempotencyKey string) (PurchaseResult, error) {
	if !ident.Valid() {
		return PurchaseResult{}, domain.ErrInvalidIdentification
	}
	if idempotencyKey == "" {
		return PurchaseResult{}, domain.ErrIdempotencyKeyRequired
	}

	now := s.clock.Now()
	items, err := s.repo.ListCart(ctx, ident, now)
	if err != nil {
		return PurchaseResult{}, err
	}
	if len(items) == 0 {
		return PurchaseResult{}, domain.ErrCartEmpty
	}

	var total int64
	consumableIDs := make([]string, 0, len(items))
	priorIntents := make(map[string]struct{})
	for _, item := range items {
		total += item.Price
		consumableIDs = append(consumableIDs, item.Consumable.ID)
		if id := item.Consumable.PaymentIntentID; id != "" {
			priorIntents[id] = struct{}{}
		}
	}

	for intentID := range priorIntents {
		// Best effort: the prior intent may already be cancelled or expired
		// provider-side.
		if err := s.provider.CancelIntent(ctx, intentID); err != nil {
			s.logger.Printf("WARN: cancel prior intent %s: %v", intentID, err)
		}
	}

	var fee int64
	if s.fee != nil {
		fee = s.fee.Apply(total)
	}

	intent, err := s.provider.CreateIntent(ctx, total+fee, idempotencyKey)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	// Stamp exactly the holds that were priced. A hold added to the cart
	// after the listing is not covered by the charge and must not carry the
	// intent id.
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.SetPaymentIntent(txCtx, consumableIDs, intent.ID)
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	return PurchaseResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       total + fee,
		Fee:          fee,
	}, nil
}

// HandlePaymentSucceeded records a provider confirmation: every hold carrying
// the intent id becomes a purchase record. The transition is one-way and
// receiving the same confirmation twice is a no-op.
func (s *PurchaseService) HandlePaymentSucceeded(ctx context.Context, intentID string) error {
	if intentID == "" {
		return domain.ErrInvalidID
	}
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		_, err := s.repo.MarkPurchasedByIntent(txCtx, intentID, now)
		return err
	})
}
