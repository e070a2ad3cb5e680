package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dsek-LTH/new-web/internal/app"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CartRepository) GetShoppableForUpdate(ctx context.Context, shoppableID string) (domain.Shoppable, error) {
	query := `SELECT ` + shoppableColumns + ` FROM shoppables WHERE id = $1 FOR UPDATE`
	s, err := scanShoppable(r.queryRow(ctx, query, shoppableID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Shoppable{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Shoppable{}, domain.ErrShoppableNotFound
		}
		return domain.Shoppable{}, fmt.Errorf("get shoppable: %w", err)
	}
	return s, nil
}

func (r *CartRepository) CountPurchased(ctx context.Context, shoppableID string) (int, error) {
	const query = `SELECT COUNT(*) FROM consumables WHERE shoppable_id = $1 AND purchased_at IS NOT NULL`

	var count int
	if err := r.queryRow(ctx, query, shoppableID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count purchased: %w", err)
	}
	return count, nil
}

func (r *CartRepository) CountOutstanding(ctx context.Context, shoppableID string, now time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM consumables
WHERE shoppable_id = $1 AND (purchased_at IS NOT NULL OR expires_at > $2)`

	var count int
	if err := r.queryRow(ctx, query, shoppableID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count outstanding: %w", err)
	}
	return count, nil
}

func (r *CartRepository) CountOwnedBy(ctx context.Context, ident domain.Identification, shoppableID string, now time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM consumables
WHERE shoppable_id = $1
  AND member_id IS NOT DISTINCT FROM $2
  AND external_code IS NOT DISTINCT FROM $3
  AND (purchased_at IS NOT NULL OR expires_at > $4)`

	memberID, externalCode := identArgs(ident)
	var count int
	if err := r.queryRow(ctx, query, shoppableID, memberID, externalCode, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count owned: %w", err)
	}
	return count, nil
}

func (r *CartRepository) HasPendingHold(ctx context.Context, ident domain.Identification, shoppableID string, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM consumables
	WHERE shoppable_id = $1
	  AND member_id IS NOT DISTINCT FROM $2
	  AND external_code IS NOT DISTINCT FROM $3
	  AND purchased_at IS NULL
	  AND expires_at > $4
)`

	memberID, externalCode := identArgs(ident)
	var exists bool
	if err := r.queryRow(ctx, query, shoppableID, memberID, externalCode, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("pending hold lookup: %w", err)
	}
	return exists, nil
}

func (r *CartRepository) HasReservation(ctx context.Context, ident domain.Identification, shoppableID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM consumable_reservations
	WHERE shoppable_id = $1
	  AND member_id IS NOT DISTINCT FROM $2
	  AND external_code IS NOT DISTINCT FROM $3
)`

	memberID, externalCode := identArgs(ident)
	var exists bool
	if err := r.queryRow(ctx, query, shoppableID, memberID, externalCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("reservation lookup: %w", err)
	}
	return exists, nil
}

func (r *CartRepository) HasAnyReservation(ctx context.Context, ident domain.Identification) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM consumable_reservations
	WHERE member_id IS NOT DISTINCT FROM $1
	  AND external_code IS NOT DISTINCT FROM $2
)`

	memberID, externalCode := identArgs(ident)
	var exists bool
	if err := r.queryRow(ctx, query, memberID, externalCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("any reservation lookup: %w", err)
	}
	return exists, nil
}

func (r *CartRepository) MaxQueueOrder(ctx context.Context, shoppableID string) (int, bool, error) {
	const query = `
SELECT MAX(queue_order)
FROM consumable_reservations
WHERE shoppable_id = $1 AND queue_order IS NOT NULL`

	var max *int
	if err := r.queryRow(ctx, query, shoppableID).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("max queue order: %w", err)
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (r *CartRepository) CreateConsumable(ctx context.Context, c domain.Consumable) error {
	const stmt = `
INSERT INTO consumables (id, shoppable_id, member_id, external_code, expires_at, purchased_at, payment_intent_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`

	memberID, externalCode := identArgs(c.Identification)
	_, err := r.exec(ctx, stmt,
		c.ID,
		c.ShoppableID,
		memberID,
		externalCode,
		c.ExpiresAt,
		c.PurchasedAt,
		c.PaymentIntentID,
		c.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create consumable: %w", err)
	}
	return nil
}

func (r *CartRepository) CreateReservation(ctx context.Context, reservation domain.ConsumableReservation) error {
	const stmt = `
INSERT INTO consumable_reservations (id, shoppable_id, member_id, external_code, queue_order, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	memberID, externalCode := identArgs(reservation.Identification)
	_, err := r.exec(ctx, stmt,
		reservation.ID,
		reservation.ShoppableID,
		memberID,
		externalCode,
		reservation.Order,
		reservation.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyReserved
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *CartRepository) ListCart(ctx context.Context, ident domain.Identification, now time.Time) ([]app.CartItem, error) {
	const query = `
SELECT c.id, c.shoppable_id, c.member_id, c.external_code, c.expires_at, c.purchased_at, c.payment_intent_id, c.created_at,
       s.name, s.price
FROM consumables c
JOIN shoppables s ON s.id = c.shoppable_id
WHERE c.member_id IS NOT DISTINCT FROM $1
  AND c.external_code IS NOT DISTINCT FROM $2
  AND c.purchased_at IS NULL
  AND c.expires_at > $3
ORDER BY c.created_at`

	memberID, externalCode := identArgs(ident)
	rows, err := r.query(ctx, query, memberID, externalCode, now)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []app.CartItem
	for rows.Next() {
		var (
			c        domain.Consumable
			mID      *string
			code     *string
			intentID *string
			item     app.CartItem
		)
		err := rows.Scan(
			&c.ID, &c.ShoppableID, &mID, &code, &c.ExpiresAt, &c.PurchasedAt, &intentID, &c.CreatedAt,
			&item.Name, &item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if mID != nil {
			c.MemberID = *mID
		}
		if code != nil {
			c.ExternalCode = *code
		}
		if intentID != nil {
			c.PaymentIntentID = *intentID
		}
		item.Consumable = c
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

func (r *CartRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CartRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *CartRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
