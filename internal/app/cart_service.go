package app

import (
	"context"
	"time"

	"github.com/Dsek-LTH/new-web/internal/clock"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

const (
	defaultGracePeriod = 5 * time.Minute
	defaultTimeToBuy   = 10 * time.Minute
)

// CartRepository is the ledger access the admission engine needs. All methods
// called inside WithTx observe the same transaction snapshot.
type CartRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetShoppableForUpdate locks the shoppable row, serializing concurrent
	// admissions for the same item.
	GetShoppableForUpdate(ctx context.Context, shoppableID string) (domain.Shoppable, error)
	CountPurchased(ctx context.Context, shoppableID string) (int, error)
	// CountOutstanding counts purchased units plus unexpired holds.
	CountOutstanding(ctx context.Context, shoppableID string, now time.Time) (int, error)
	// CountOwnedBy counts the identification's purchased units and unexpired
	// holds of one shoppable.
	CountOwnedBy(ctx context.Context, ident domain.Identification, shoppableID string, now time.Time) (int, error)
	HasPendingHold(ctx context.Context, ident domain.Identification, shoppableID string, now time.Time) (bool, error)
	HasReservation(ctx context.Context, ident domain.Identification, shoppableID string) (bool, error)
	// HasAnyReservation looks across all shoppables; the grace-window entry
	// check is deliberately unscoped (see AddToCart).
	HasAnyReservation(ctx context.Context, ident domain.Identification) (bool, error)
	// MaxQueueOrder returns the highest queue order for the shoppable and
	// whether the queue is non-empty.
	MaxQueueOrder(ctx context.Context, shoppableID string) (int, bool, error)
	CreateConsumable(ctx context.Context, c domain.Consumable) error
	CreateReservation(ctx context.Context, r domain.ConsumableReservation) error
	ListCart(ctx context.Context, ident domain.Identification, now time.Time) ([]CartItem, error)
}

// CartItem is a held consumable joined with its shoppable's price.
type CartItem struct {
	Consumable domain.Consumable
	Name       string
	Price      int64
}

// ResolutionScheduler arms the one-shot grace-window resolution for a
// shoppable. Arming is idempotent per shoppable.
type ResolutionScheduler interface {
	ArmResolution(shoppableID string, fireIn time.Duration)
}

type CartService struct {
	repo        CartRepository
	scheduler   ResolutionScheduler
	clock       clock.Clock
	gracePeriod time.Duration
	timeToBuy   time.Duration
}

type CartServiceOption func(*CartService)

// WithGracePeriod overrides the lottery window length.
func WithGracePeriod(d time.Duration) CartServiceOption {
	return func(s *CartService) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

// WithTimeToBuy overrides how long a hold stays payable.
func WithTimeToBuy(d time.Duration) CartServiceOption {
	return func(s *CartService) {
		if d > 0 {
			s.timeToBuy = d
		}
	}
}

func NewCartService(repo CartRepository, scheduler ResolutionScheduler, clk clock.Clock, opts ...CartServiceOption) *CartService {
	svc := &CartService{
		repo:        repo,
		scheduler:   scheduler,
		clock:       clk,
		gracePeriod: defaultGracePeriod,
		timeToBuy:   defaultTimeToBuy,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// AddToCart decides the outcome of one add-to-cart request: an immediate hold,
// a grace-window lottery entry, an overflow queue position, or a direct grant
// for free items. The whole decision runs in one transaction against the
// ledger so that two concurrent requests cannot both take the last slot.
func (s *CartService) AddToCart(ctx context.Context, shoppableID string, ident domain.Identification) (domain.AddResult, error) {
	if !ident.Valid() {
		return domain.AddResult{}, domain.ErrInvalidIdentification
	}

	now := s.clock.Now()
	var (
		result   domain.AddResult
		armTimer time.Duration
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		shoppable, err := s.repo.GetShoppableForUpdate(txCtx, shoppableID)
		if err != nil {
			return err
		}
		if shoppable.Removed() {
			return domain.ErrShoppableNotFound
		}

		purchased, err := s.repo.CountPurchased(txCtx, shoppableID)
		if err != nil {
			return err
		}

		state := domain.SaleStatus(now, shoppable, purchased, s.gracePeriod)
		switch state {
		case domain.SaleNotYetOpen:
			return domain.ErrSaleNotOpen
		case domain.SaleClosed:
			return domain.ErrSaleClosed
		case domain.SaleSoldOut:
			return domain.ErrSoldOut
		}

		if holding, err := s.repo.HasPendingHold(txCtx, ident, shoppableID, now); err != nil {
			return err
		} else if holding {
			return domain.ErrAlreadyInCart
		}

		owned, err := s.repo.CountOwnedBy(txCtx, ident, shoppableID, now)
		if err != nil {
			return err
		}
		if owned >= shoppable.MaxAmountPerUser {
			return domain.ErrOwnershipLimit
		}

		if reserved, err := s.repo.HasReservation(txCtx, ident, shoppableID); err != nil {
			return err
		} else if reserved {
			return domain.ErrAlreadyReserved
		}

		if state == domain.SaleGraceWindow {
			// The entry check is unscoped: any outstanding reservation, for
			// any shoppable, blocks a new lottery entry. Covered by
			// TestCartService_AddToCart "reservation for another item blocks
			// grace entry".
			if reserved, err := s.repo.HasAnyReservation(txCtx, ident); err != nil {
				return err
			} else if reserved {
				return domain.ErrAlreadyReserved
			}

			reservation := domain.ConsumableReservation{
				ID:             newID(),
				ShoppableID:    shoppableID,
				Identification: ident,
				CreatedAt:      now,
			}
			if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
				return err
			}

			armTimer = shoppable.AvailableFrom.Add(s.gracePeriod).Sub(now)
			result = domain.AddResult{Outcome: domain.Reserved, Reservation: &reservation}
			return nil
		}

		outstanding, err := s.repo.CountOutstanding(txCtx, shoppableID, now)
		if err != nil {
			return err
		}
		if outstanding >= shoppable.Stock {
			maxOrder, exists, err := s.repo.MaxQueueOrder(txCtx, shoppableID)
			if err != nil {
				return err
			}
			order := 0
			if exists {
				order = maxOrder + 1
			}
			reservation := domain.ConsumableReservation{
				ID:             newID(),
				ShoppableID:    shoppableID,
				Identification: ident,
				Order:          &order,
				CreatedAt:      now,
			}
			if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
				return err
			}
			result = domain.AddResult{
				Outcome:       domain.PutInQueue,
				QueuePosition: order + 1,
				Reservation:   &reservation,
			}
			return nil
		}

		consumable := domain.Consumable{
			ID:             newID(),
			ShoppableID:    shoppableID,
			Identification: ident,
			CreatedAt:      now,
		}
		if shoppable.Free() {
			purchasedAt := now
			consumable.PurchasedAt = &purchasedAt
			if err := s.repo.CreateConsumable(txCtx, consumable); err != nil {
				return err
			}
			result = domain.AddResult{Outcome: domain.AddedToInventory, Consumable: &consumable}
			return nil
		}

		expiresAt := now.Add(s.timeToBuy)
		consumable.ExpiresAt = &expiresAt
		if err := s.repo.CreateConsumable(txCtx, consumable); err != nil {
			return err
		}
		result = domain.AddResult{Outcome: domain.AddedToCart, Consumable: &consumable}
		return nil
	})
	if err != nil {
		return domain.AddResult{}, err
	}

	// Armed only after the reservation committed; a rolled-back entry must
	// not leave a timer behind.
	if result.Outcome == domain.Reserved && s.scheduler != nil {
		s.scheduler.ArmResolution(shoppableID, armTimer)
	}

	return result, nil
}

// ListCart returns the identification's current unexpired holds with prices.
func (s *CartService) ListCart(ctx context.Context, ident domain.Identification) ([]CartItem, error) {
	if !ident.Valid() {
		return nil, domain.ErrInvalidIdentification
	}
	return s.repo.ListCart(ctx, ident, s.clock.Now())
}
