package app

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Dsek-LTH/new-web/internal/clock"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

// LotteryRepository is the ledger access the scheduler needs.
type LotteryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetShoppableForUpdate(ctx context.Context, shoppableID string) (domain.Shoppable, error)
	CountOutstanding(ctx context.Context, shoppableID string, now time.Time) (int, error)
	// ListPooledReservations returns the lottery pool (Order nil) for one
	// shoppable.
	ListPooledReservations(ctx context.Context, shoppableID string) ([]domain.ConsumableReservation, error)
	// ListQueuedReservations returns the overflow queue in FIFO order.
	ListQueuedReservations(ctx context.Context, shoppableID string) ([]domain.ConsumableReservation, error)
	DeleteReservation(ctx context.Context, reservationID string) error
	CreateConsumable(ctx context.Context, c domain.Consumable) error
	// DeleteExpiredConsumables removes unpurchased holds whose expiry has
	// passed and returns the deleted rows.
	DeleteExpiredConsumables(ctx context.Context, now time.Time) ([]domain.Consumable, error)
	// ListShoppablesWithPooledReservations supports startup recovery of
	// pending grace-window resolutions.
	ListShoppablesWithPooledReservations(ctx context.Context) ([]domain.Shoppable, error)
}

// LotteryService owns the two deferred mechanisms of the ticket shop: the
// one-shot grace-window lottery per shoppable and the sweep that expires
// unpaid holds and advances the overflow queue.
type LotteryService struct {
	repo        LotteryRepository
	notifier    Notifier
	clock       clock.Clock
	logger      *log.Logger
	gracePeriod time.Duration
	timeToBuy   time.Duration
	shuffle     func(n int, swap func(i, j int))

	mu     sync.Mutex
	timers map[string]*time.Timer
}

type LotteryServiceOption func(*LotteryService)

// WithLotteryGracePeriod overrides the lottery window length.
func WithLotteryGracePeriod(d time.Duration) LotteryServiceOption {
	return func(s *LotteryService) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

// WithLotteryTimeToBuy overrides how long promoted holds stay payable.
func WithLotteryTimeToBuy(d time.Duration) LotteryServiceOption {
	return func(s *LotteryService) {
		if d > 0 {
			s.timeToBuy = d
		}
	}
}

// WithShuffle injects the lottery's random ordering, making draws
// deterministic under test.
func WithShuffle(shuffle func(n int, swap func(i, j int))) LotteryServiceOption {
	return func(s *LotteryService) {
		if shuffle != nil {
			s.shuffle = shuffle
		}
	}
}

func NewLotteryService(repo LotteryRepository, notifier Notifier, clk clock.Clock, logger *log.Logger, opts ...LotteryServiceOption) *LotteryService {
	if logger == nil {
		logger = log.Default()
	}
	svc := &LotteryService{
		repo:        repo,
		notifier:    notifier,
		clock:       clk,
		logger:      logger,
		gracePeriod: defaultGracePeriod,
		timeToBuy:   defaultTimeToBuy,
		shuffle:     rand.Shuffle,
		timers:      make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ArmResolution schedules the grace-window resolution for a shoppable once.
// Re-arming while a timer is pending is a no-op.
func (s *LotteryService) ArmResolution(shoppableID string, fireIn time.Duration) {
	if fireIn < 0 {
		fireIn = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, armed := s.timers[shoppableID]; armed {
		return
	}
	s.timers[shoppableID] = time.AfterFunc(fireIn, func() {
		s.mu.Lock()
		delete(s.timers, shoppableID)
		s.mu.Unlock()

		// Timer failures stay inside the scheduler; the next sweep or a
		// restart recovery retries resolution.
		if err := s.ResolveGraceWindow(context.Background(), shoppableID); err != nil {
			s.logger.Printf("lottery resolution failed shoppable=%s err=%v", shoppableID, err)
		}
	})
}

// Armed reports whether a resolution timer is pending for the shoppable.
func (s *LotteryService) Armed(shoppableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, armed := s.timers[shoppableID]
	return armed
}

// Stop cancels all pending timers.
func (s *LotteryService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// ResolveGraceWindow draws the lottery for one shoppable: pooled reservations
// are shuffled, as many as remaining stock allows become holds with a fresh
// time-to-buy, and every pooled reservation is deleted regardless of outcome.
// Calling it again with no pooled reservations left is a no-op, so a failed
// resolution is safe to retry.
func (s *LotteryService) ResolveGraceWindow(ctx context.Context, shoppableID string) error {
	now := s.clock.Now()
	var winners []Notification

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		shoppable, err := s.repo.GetShoppableForUpdate(txCtx, shoppableID)
		if err != nil {
			return err
		}

		pooled, err := s.repo.ListPooledReservations(txCtx, shoppableID)
		if err != nil {
			return err
		}
		if len(pooled) == 0 {
			return nil
		}

		outstanding, err := s.repo.CountOutstanding(txCtx, shoppableID, now)
		if err != nil {
			return err
		}
		capacity := shoppable.Stock - outstanding
		if capacity < 0 {
			capacity = 0
		}
		if capacity > len(pooled) {
			capacity = len(pooled)
		}

		s.shuffle(len(pooled), func(i, j int) {
			pooled[i], pooled[j] = pooled[j], pooled[i]
		})

		for _, reservation := range pooled[:capacity] {
			expiresAt := now.Add(s.timeToBuy)
			hold := domain.Consumable{
				ID:             newID(),
				ShoppableID:    shoppableID,
				Identification: reservation.Identification,
				ExpiresAt:      &expiresAt,
				CreatedAt:      now,
			}
			if err := s.repo.CreateConsumable(txCtx, hold); err != nil {
				return err
			}
			winners = append(winners, Notification{
				Identification: reservation.Identification,
				ShoppableID:    shoppableID,
			})
		}

		// Losers are dropped outright; telling them is the notification
		// collaborator's business, not the ledger's.
		for _, reservation := range pooled {
			if err := s.repo.DeleteReservation(txCtx, reservation.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(winners) > 0 && s.notifier != nil {
		s.notifier.NotifyAvailable(ctx, winners)
	}
	return nil
}

// ExpireConsumables deletes every unpaid hold whose time-to-buy has run out
// and, for each shoppable that freed capacity, promotes queued reservations
// FIFO into fresh holds. The returned notifications must only be delivered
// after the transaction has committed; SweepAndNotify does that.
func (s *LotteryService) ExpireConsumables(ctx context.Context) ([]Notification, error) {
	now := s.clock.Now()
	var notifications []Notification

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		expired, err := s.repo.DeleteExpiredConsumables(txCtx, now)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		affected := make(map[string]struct{}, len(expired))
		for _, c := range expired {
			affected[c.ShoppableID] = struct{}{}
		}
		// Locked in sorted order so a concurrent sweep cannot deadlock.
		ids := make([]string, 0, len(affected))
		for id := range affected {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, shoppableID := range ids {
			promoted, err := s.advanceQueue(txCtx, shoppableID, now)
			if err != nil {
				return err
			}
			notifications = append(notifications, promoted...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *LotteryService) advanceQueue(ctx context.Context, shoppableID string, now time.Time) ([]Notification, error) {
	shoppable, err := s.repo.GetShoppableForUpdate(ctx, shoppableID)
	if err != nil {
		return nil, err
	}
	// A removed or closed sale keeps its queue but stops advancing it.
	if shoppable.Removed() {
		return nil, nil
	}
	if shoppable.AvailableTo != nil && now.After(*shoppable.AvailableTo) {
		return nil, nil
	}

	outstanding, err := s.repo.CountOutstanding(ctx, shoppableID, now)
	if err != nil {
		return nil, err
	}
	free := shoppable.Stock - outstanding
	if free <= 0 {
		return nil, nil
	}

	queued, err := s.repo.ListQueuedReservations(ctx, shoppableID)
	if err != nil {
		return nil, err
	}
	if len(queued) > free {
		queued = queued[:free]
	}

	var promoted []Notification
	for _, reservation := range queued {
		expiresAt := now.Add(s.timeToBuy)
		hold := domain.Consumable{
			ID:             newID(),
			ShoppableID:    shoppableID,
			Identification: reservation.Identification,
			ExpiresAt:      &expiresAt,
			CreatedAt:      now,
		}
		if err := s.repo.CreateConsumable(ctx, hold); err != nil {
			return nil, err
		}
		if err := s.repo.DeleteReservation(ctx, reservation.ID); err != nil {
			return nil, err
		}
		promoted = append(promoted, Notification{
			Identification: reservation.Identification,
			ShoppableID:    shoppableID,
		})
	}
	return promoted, nil
}

// SweepAndNotify runs the expiry sweep and delivers the resulting
// notifications once the sweep has committed.
func (s *LotteryService) SweepAndNotify(ctx context.Context) error {
	notifications, err := s.ExpireConsumables(ctx)
	if err != nil {
		return err
	}
	if len(notifications) > 0 && s.notifier != nil {
		s.notifier.NotifyAvailable(ctx, notifications)
	}
	return nil
}

// Restore re-establishes pending grace-window resolutions after a restart:
// past-due windows are resolved immediately, future ones get their timer
// re-armed. Errors on individual shoppables are logged and skipped.
func (s *LotteryService) Restore(ctx context.Context) error {
	shoppables, err := s.repo.ListShoppablesWithPooledReservations(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, shoppable := range shoppables {
		due := shoppable.AvailableFrom.Add(s.gracePeriod)
		if due.After(now) {
			s.ArmResolution(shoppable.ID, due.Sub(now))
			continue
		}
		if err := s.ResolveGraceWindow(ctx, shoppable.ID); err != nil {
			s.logger.Printf("lottery recovery failed shoppable=%s err=%v", shoppable.ID, err)
		}
	}
	return nil
}

// RunSweeper periodically expires holds until the context is cancelled.
func (s *LotteryService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepAndNotify(ctx); err != nil {
				s.logger.Printf("expiry sweep failed err=%v", err)
			}
		}
	}
}
