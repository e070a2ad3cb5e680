package domain

import "errors"

var (
	ErrShoppableNotFound      = errors.New("shoppable not found")
	ErrSaleNotOpen            = errors.New("sale has not opened yet")
	ErrSaleClosed             = errors.New("sale has closed")
	ErrSoldOut                = errors.New("sold out")
	ErrAlreadyInCart          = errors.New("item is already in your cart")
	ErrOwnershipLimit         = errors.New("maximum amount per user reached")
	ErrAlreadyReserved        = errors.New("an outstanding reservation already exists")
	ErrCartEmpty              = errors.New("cart is empty")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrInvalidIdentification  = errors.New("exactly one of member id or anonymous code is required")
	ErrInvalidID              = errors.New("invalid id")
	ErrConcurrencyConflict    = errors.New("concurrent update conflict, retry the request")
	ErrPaymentFailed          = errors.New("payment provider rejected the attempt")
	ErrNameRequired           = errors.New("name required")
	ErrInvalidStock           = errors.New("stock must be positive")
	ErrInvalidPrice           = errors.New("price must not be negative")
	ErrInvalidMaxPerUser      = errors.New("max amount per user must be at least one")
	ErrInvalidSaleWindow      = errors.New("sale window end must be after its start")
)
