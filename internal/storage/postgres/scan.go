package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

// prefixColumns qualifies a column list with a table alias for joins.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

const shoppableColumns = `id, name, price, stock, max_amount_per_user, available_from, available_to, removed_at, created_at`

func scanShoppable(row pgx.Row) (domain.Shoppable, error) {
	var s domain.Shoppable
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Price,
		&s.Stock,
		&s.MaxAmountPerUser,
		&s.AvailableFrom,
		&s.AvailableTo,
		&s.RemovedAt,
		&s.CreatedAt,
	)
	return s, err
}

const consumableColumns = `id, shoppable_id, member_id, external_code, expires_at, purchased_at, payment_intent_id, created_at`

func scanConsumable(row pgx.Row) (domain.Consumable, error) {
	var (
		c            domain.Consumable
		memberID     *string
		externalCode *string
		intentID     *string
	)
	err := row.Scan(
		&c.ID,
		&c.ShoppableID,
		&memberID,
		&externalCode,
		&c.ExpiresAt,
		&c.PurchasedAt,
		&intentID,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.Consumable{}, err
	}
	if memberID != nil {
		c.MemberID = *memberID
	}
	if externalCode != nil {
		c.ExternalCode = *externalCode
	}
	if intentID != nil {
		c.PaymentIntentID = *intentID
	}
	return c, nil
}

const reservationColumns = `id, shoppable_id, member_id, external_code, queue_order, created_at`

func scanReservation(row pgx.Row) (domain.ConsumableReservation, error) {
	var (
		r            domain.ConsumableReservation
		memberID     *string
		externalCode *string
	)
	err := row.Scan(
		&r.ID,
		&r.ShoppableID,
		&memberID,
		&externalCode,
		&r.Order,
		&r.CreatedAt,
	)
	if err != nil {
		return domain.ConsumableReservation{}, err
	}
	if memberID != nil {
		r.MemberID = *memberID
	}
	if externalCode != nil {
		r.ExternalCode = *externalCode
	}
	return r, nil
}

// identArgs maps the empty-string convention of domain.Identification onto
// the nullable columns.
func identArgs(ident domain.Identification) (memberID, externalCode *string) {
	if ident.MemberID != "" {
		memberID = &ident.MemberID
	}
	if ident.ExternalCode != "" {
		externalCode = &ident.ExternalCode
	}
	return memberID, externalCode
}
