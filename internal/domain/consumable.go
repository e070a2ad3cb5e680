package domain

import "time"

// Consumable is one unit of a Shoppable held or owned by one Identification.
//
// A row with PurchasedAt set is an immutable purchase record and must never be
// deleted. A row with PurchasedAt nil and ExpiresAt in the past is an expired
// cart hold, eligible for deletion by the expiry sweep. Free items are granted
// with PurchasedAt set and ExpiresAt nil.
type Consumable struct {
	ID          string
	ShoppableID string
	Identification
	ExpiresAt   *time.Time
	PurchasedAt *time.Time
	// PaymentIntentID is set once a payment attempt has been created for the
	// cart this hold belongs to.
	PaymentIntentID string
	CreatedAt       time.Time
}

// Purchased reports whether the unit has been paid for (or granted for free).
func (c Consumable) Purchased() bool {
	return c.PurchasedAt != nil
}

// Expired reports whether an unpurchased hold's time-to-buy has run out.
func (c Consumable) Expired(now time.Time) bool {
	return c.PurchasedAt == nil && c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
