package domain

// AddOutcome enumerates what happened to a single add-to-cart request.
type AddOutcome string

const (
	// AddedToCart means a hold was created; the buyer has until its ExpiresAt
	// to pay.
	AddedToCart AddOutcome = "added_to_cart"
	// Reserved means the buyer entered the grace-window lottery pool.
	Reserved AddOutcome = "reserved"
	// PutInQueue means all stock is outstanding and the buyer was appended to
	// the overflow queue.
	PutInQueue AddOutcome = "put_in_queue"
	// AddedToInventory means a free item was granted outright.
	AddedToInventory AddOutcome = "added_to_inventory"
)

// AddResult is the outcome of CartService.AddToCart.
type AddResult struct {
	Outcome AddOutcome
	// QueuePosition is the 1-indexed position of the new entrant, set only
	// for PutInQueue.
	QueuePosition int
	// Consumable is set for AddedToCart and AddedToInventory.
	Consumable *Consumable
	// Reservation is set for Reserved and PutInQueue.
	Reservation *ConsumableReservation
}
