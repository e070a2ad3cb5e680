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

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) CreateShoppable(ctx context.Context, s domain.Shoppable) error {
	const stmt = `
INSERT INTO shoppables (id, name, price, stock, max_amount_per_user, available_from, available_to, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		s.ID,
		s.Name,
		s.Price,
		s.Stock,
		s.MaxAmountPerUser,
		s.AvailableFrom,
		s.AvailableTo,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create shoppable: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListShoppables(ctx context.Context) ([]domain.Shoppable, error) {
	query := `SELECT ` + shoppableColumns + ` FROM shoppables ORDER BY created_at DESC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list shoppables: %w", err)
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
		return nil, fmt.Errorf("list shoppables: %w", err)
	}
	return shoppables, nil
}

func (r *AdminRepository) GetShoppable(ctx context.Context, shoppableID string) (domain.Shoppable, error) {
	query := `SELECT ` + shoppableColumns + ` FROM shoppables WHERE id = $1`
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

func (r *AdminRepository) RemoveShoppable(ctx context.Context, shoppableID string, at time.Time) error {
	const stmt = `UPDATE shoppables SET removed_at = $2 WHERE id = $1 AND removed_at IS NULL`

	tag, err := r.exec(ctx, stmt, shoppableID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("remove shoppable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrShoppableNotFound
	}
	return nil
}

func (r *AdminRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AdminRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *AdminRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
