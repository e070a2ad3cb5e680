package domain

import "time"

// ConsumableReservation is a buyer's claim on a Shoppable that cannot be
// turned into a hold yet: either a lottery entry during the grace window
// (Order nil) or a position in the FIFO overflow queue (Order set, lower is
// earlier). At most one reservation exists per (Identification, Shoppable).
type ConsumableReservation struct {
	ID          string
	ShoppableID string
	Identification
	Order     *int
	CreatedAt time.Time
}

// Pooled reports whether the reservation is a grace-window lottery entry.
func (r ConsumableReservation) Pooled() bool {
	return r.Order == nil
}
