package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

// fakeLedger is an in-memory stand-in for the Postgres ledger, implementing
// the cart, lottery and purchase repository interfaces so scenarios can span
// services.
type fakeLedger struct {
	mu           sync.Mutex
	shoppables   map[string]domain.Shoppable
	consumables  map[string]domain.Consumable
	reservations map[string]domain.ConsumableReservation
	failNext     error
}

func newFakeLedger(shoppables ...domain.Shoppable) *fakeLedger {
	ledger := &fakeLedger{
		shoppables:   make(map[string]domain.Shoppable),
		consumables:  make(map[string]domain.Consumable),
		reservations: make(map[string]domain.ConsumableReservation),
	}
	for _, s := range shoppables {
		ledger.shoppables[s.ID] = s
	}
	return ledger
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	return fn(ctx)
}

func (f *fakeLedger) GetShoppableForUpdate(_ context.Context, shoppableID string) (domain.Shoppable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shoppables[shoppableID]
	if !ok {
		return domain.Shoppable{}, domain.ErrShoppableNotFound
	}
	return s, nil
}

func (f *fakeLedger) CountPurchased(_ context.Context, shoppableID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.consumables {
		if c.ShoppableID == shoppableID && c.PurchasedAt != nil {
			count++
		}
	}
	return count, nil
}

func outstanding(c domain.Consumable, now time.Time) bool {
	if c.PurchasedAt != nil {
		return true
	}
	return c.ExpiresAt != nil && c.ExpiresAt.After(now)
}

func (f *fakeLedger) CountOutstanding(_ context.Context, shoppableID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.consumables {
		if c.ShoppableID == shoppableID && outstanding(c, now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) CountOwnedBy(_ context.Context, ident domain.Identification, shoppableID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.consumables {
		if c.ShoppableID == shoppableID && c.Identification == ident && outstanding(c, now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) HasPendingHold(_ context.Context, ident domain.Identification, shoppableID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.consumables {
		if c.ShoppableID == shoppableID && c.Identification == ident &&
			c.PurchasedAt == nil && c.ExpiresAt != nil && c.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) HasReservation(_ context.Context, ident domain.Identification, shoppableID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ShoppableID == shoppableID && r.Identification == ident {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) HasAnyReservation(_ context.Context, ident domain.Identification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.Identification == ident {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) MaxQueueOrder(_ context.Context, shoppableID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max, found := 0, false
	for _, r := range f.reservations {
		if r.ShoppableID == shoppableID && r.Order != nil {
			if !found || *r.Order > max {
				max = *r.Order
			}
			found = true
		}
	}
	return max, found, nil
}

func (f *fakeLedger) CreateConsumable(_ context.Context, c domain.Consumable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumables[c.ID] = c
	return nil
}

func (f *fakeLedger) CreateReservation(_ context.Context, r domain.ConsumableReservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reservations {
		if existing.ShoppableID == r.ShoppableID && existing.Identification == r.Identification {
			return domain.ErrAlreadyReserved
		}
	}
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeLedger) ListCart(_ context.Context, ident domain.Identification, now time.Time) ([]CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []CartItem
	for _, c := range f.consumables {
		if c.Identification == ident && c.PurchasedAt == nil && c.ExpiresAt != nil && c.ExpiresAt.After(now) {
			shoppable := f.shoppables[c.ShoppableID]
			items = append(items, CartItem{
				Consumable: c,
				Name:       shoppable.Name,
				Price:      shoppable.Price,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Consumable.ID < items[j].Consumable.ID
	})
	return items, nil
}

func (f *fakeLedger) ListPooledReservations(_ context.Context, shoppableID string) ([]domain.ConsumableReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pooled []domain.ConsumableReservation
	for _, r := range f.reservations {
		if r.ShoppableID == shoppableID && r.Order == nil {
			pooled = append(pooled, r)
		}
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].ID < pooled[j].ID })
	return pooled, nil
}

func (f *fakeLedger) ListQueuedReservations(_ context.Context, shoppableID string) ([]domain.ConsumableReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var queued []domain.ConsumableReservation
	for _, r := range f.reservations {
		if r.ShoppableID == shoppableID && r.Order != nil {
			queued = append(queued, r)
		}
	}
	sort.Slice(queued, func(i, j int) bool { return *queued[i].Order < *queued[j].Order })
	return queued, nil
}

func (f *fakeLedger) DeleteReservation(_ context.Context, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reservations, reservationID)
	return nil
}

func (f *fakeLedger) DeleteExpiredConsumables(_ context.Context, now time.Time) ([]domain.Consumable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted []domain.Consumable
	for id, c := range f.consumables {
		if c.Expired(now) {
			deleted = append(deleted, c)
			delete(f.consumables, id)
		}
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].ID < deleted[j].ID })
	return deleted, nil
}

func (f *fakeLedger) ListShoppablesWithPooledReservations(_ context.Context) ([]domain.Shoppable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	var shoppables []domain.Shoppable
	for _, r := range f.reservations {
		if r.Order != nil {
			continue
		}
		if _, ok := seen[r.ShoppableID]; ok {
			continue
		}
		seen[r.ShoppableID] = struct{}{}
		shoppables = append(shoppables, f.shoppables[r.ShoppableID])
	}
	sort.Slice(shoppables, func(i, j int) bool { return shoppables[i].ID < shoppables[j].ID })
	return shoppables, nil
}

func (f *fakeLedger) SetPaymentIntent(_ context.Context, consumableIDs []string, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range consumableIDs {
		if c, ok := f.consumables[id]; ok && c.PurchasedAt == nil {
			c.PaymentIntentID = intentID
			f.consumables[id] = c
		}
	}
	return nil
}

func (f *fakeLedger) MarkPurchasedByIntent(_ context.Context, intentID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, c := range f.consumables {
		if c.PaymentIntentID == intentID && c.PurchasedAt == nil {
			purchasedAt := now
			c.PurchasedAt = &purchasedAt
			c.ExpiresAt = nil
			f.consumables[id] = c
			count++
		}
	}
	return count, nil
}

// reservationCount counts rows for assertions.
func (f *fakeLedger) reservationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func (f *fakeLedger) consumablesFor(ident domain.Identification, shoppableID string) []domain.Consumable {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Consumable
	for _, c := range f.consumables {
		if c.Identification == ident && c.ShoppableID == shoppableID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type armCall struct {
	shoppableID string
	fireIn      time.Duration
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []armCall
}

func (f *fakeScheduler) ArmResolution(shoppableID string, fireIn time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, armCall{shoppableID: shoppableID, fireIn: fireIn})
}

func (f *fakeScheduler) armed() []armCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]armCall(nil), f.calls...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (f *fakeNotifier) NotifyAvailable(_ context.Context, notifications []Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notifications...)
}

func (f *fakeNotifier) notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.sent...)
}

type createIntentCall struct {
	amount int64
	key    string
}

type fakeProvider struct {
	mu        sync.Mutex
	created   []createIntentCall
	cancelled []string
	nextID    string
	failWith  error
	cancelErr error
}

func (f *fakeProvider) CreateIntent(_ context.Context, amount int64, key string) (PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return PaymentIntent{}, f.failWith
	}
	f.created = append(f.created, createIntentCall{amount: amount, key: key})
	id := f.nextID
	if id == "" {
		id = "pi_test"
	}
	return PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (f *fakeProvider) CancelIntent(_ context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, intentID)
	return f.cancelErr
}

var errBoom = errors.New("boom")
