package domain

import "time"

// SaleState is the admission state of a Shoppable at a point in time.
type SaleState string

const (
	SaleNotYetOpen  SaleState = "not_yet_open"
	SaleGraceWindow SaleState = "grace_window"
	SaleOpen        SaleState = "open"
	SaleSoldOut     SaleState = "sold_out"
	SaleClosed      SaleState = "closed"
)

// SaleStatus evaluates the admission window for a Shoppable. purchasedCount
// counts consumables with PurchasedAt set. gracePeriod is the fixed duration
// after AvailableFrom during which entrants are pooled for the lottery.
//
// Pure function; callers must evaluate it against the same transaction
// snapshot they mutate under, or two concurrent admissions can both observe
// the last free slot.
func SaleStatus(now time.Time, s Shoppable, purchasedCount int, gracePeriod time.Duration) SaleState {
	switch {
	case now.Before(s.AvailableFrom):
		return SaleNotYetOpen
	case s.AvailableTo != nil && now.After(*s.AvailableTo):
		return SaleClosed
	case purchasedCount >= s.Stock:
		return SaleSoldOut
	case now.Sub(s.AvailableFrom) < gracePeriod:
		return SaleGraceWindow
	default:
		return SaleOpen
	}
}
