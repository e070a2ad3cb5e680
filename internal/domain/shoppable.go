package domain

import "time"

// Shoppable is a sellable, time-windowed, stock-limited item (e.g. an event
// ticket). Price is in öre. Stock caps the number of paid units.
type Shoppable struct {
	ID               string
	Name             string
	Price            int64
	Stock            int
	MaxAmountPerUser int
	AvailableFrom    time.Time
	// AvailableTo is nil for open-ended sales.
	AvailableTo *time.Time
	// RemovedAt marks a soft-deleted item; removed items reject admissions.
	RemovedAt *time.Time
	CreatedAt time.Time
}

// Removed reports whether the item has been soft-deleted.
func (s Shoppable) Removed() bool {
	return s.RemovedAt != nil
}

// Free reports whether the item costs nothing; free items skip the
// hold-then-pay flow and are granted directly.
func (s Shoppable) Free() bool {
	return s.Price == 0
}
