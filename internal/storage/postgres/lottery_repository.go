package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

type LotteryRepository struct {
	pool *pgxpool.Pool
}

func NewLotteryRepository(pool *pgxpool.Pool) *LotteryRepository {
	return &LotteryRepository{pool: pool}
}

func (r *LotteryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *LotteryRepository) GetShoppableForUpdate(ctx context.Context, shoppableID string) (domain.Shoppable, error) {
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

func (r *LotteryRepository) CountOutstanding(ctx context.Context, shoppableID string, now time.Time) (int, error) {
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

func (r *LotteryRepository) ListPooledReservations(ctx context.Context, shoppableID string) ([]domain.ConsumableReservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM consumable_reservations
WHERE shoppable_id = $1 AND queue_order IS NULL
ORDER BY created_at`

	return r.listReservations(ctx, query, shoppableID)
}

func (r *LotteryRepository) ListQueuedReservations(ctx context.Context, shoppableID string) ([]domain.ConsumableReservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM consumable_reservations
WHERE shoppable_id = $1 AND queue_order IS NOT NULL
ORDER BY queue_order`

	return r.listReservations(ctx, query, shoppableID)
}

func (r *LotteryRepository) listReservations(ctx context.Context, query, shoppableID string) ([]domain.ConsumableReservation, error) {
	rows, err := r.query(ctx, query, shoppableID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.ConsumableReservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (r *LotteryRepository) DeleteReservation(ctx context.Context, reservationID string) error {
	const stmt = `DELETE FROM consumable_reservations WHERE id = $1`

	if _, err := r.exec(ctx, stmt, reservationID); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

func (r *LotteryRepository) CreateConsumable(ctx context.Context, c domain.Consumable) error {
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
		return fmt.Errorf("create consumable: %w", err)
	}
	return nil
}

// DeleteExpiredConsumables removes unpaid holds past their expiry. Purchase
// records (purchased_at set) are never touched.
func (r *LotteryRepository) DeleteExpiredConsumables(ctx context.Context, now time.Time) ([]domain.Consumable, error) {
	query := `
DELETE FROM consumables
WHERE purchased_at IS NULL AND expires_at IS NOT NULL AND expires_at <= $1
RETURNING ` + consumableColumns

	rows, err := r.query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("delete expired: %w", err)
	}
	defer rows.Close()

	var deleted []domain.Consumable
	for rows.Next() {
		c, err := scanConsumable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired: %w", err)
		}
		deleted = append(deleted, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete expired: %w", err)
	}
	return deleted, nil
}

func (r *LotteryRepository) ListShoppablesWithPooledReservations(ctx context.Context) ([]domain.Shoppable, error) {
	query := `
SELECT DISTINCT ` + prefixColumns("s", shoppableColumns) + `
FROM shoppables s
JOIN consumable_reservations res ON res.shoppable_id = s.id AND res.queue_order IS NULL`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending lotteries: %w", err)
	}
	defer rows.Close()

	var shoppables []domain.Shoppable
	for rows.Next() {
		s, err := scanShoppable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shoppable: %w", err)
		}
		shoppables = append(shoppables, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending lotteries: %w", err)
	}
	return shoppables, nil
}

func (r *LotteryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *LotteryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *LotteryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
