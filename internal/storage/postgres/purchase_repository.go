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

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PurchaseRepository) ListCart(ctx context.Context, ident domain.Identification, now time.Time) ([]app.CartItem, error) {
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

func (r *PurchaseRepository) SetPaymentIntent(ctx context.Context, consumableIDs []string, intentID string) error {
	if len(consumableIDs) == 0 {
		return nil
	}

	const stmt = `
UPDATE consumables
SET payment_intent_id = $1
WHERE id = ANY($2)
  AND purchased_at IS NULL`

	if _, err := r.exec(ctx, stmt, intentID, consumableIDs); err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) MarkPurchasedByIntent(ctx context.Context, intentID string, now time.Time) (int, error) {
	const stmt = `
UPDATE consumables
SET purchased_at = $2, expires_at = NULL
WHERE payment_intent_id = $1 AND purchased_at IS NULL`

	tag, err := r.exec(ctx, stmt, intentID, now)
	if err != nil {
		return 0, fmt.Errorf("mark purchased: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PurchaseRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PurchaseRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
