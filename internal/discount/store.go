package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/db"
)

// Store persists discounts.
type Store interface {
	Insert(ctx context.Context, d Discount) (Discount, error)
	Update(ctx context.Context, d Discount) (Discount, error)
	Get(ctx context.Context, id uuid.UUID) (Discount, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]Discount, int, error)
}

const discountColumns = `id, name, discount_percentage, commission_percentage, active, created_at, updated_at`

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB db.DBTX
}

func scanDiscount(row pgx.Row) (Discount, error) {
	var d Discount
	err := row.Scan(&d.ID, &d.Name, &d.DiscountPercentage, &d.CommissionPercentage, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Discount{}, common.ErrNotFound
	}
	return d, err
}

func (s PGStore) Insert(ctx context.Context, d Discount) (Discount, error) {
	out, err := scanDiscount(s.DB.QueryRow(ctx, `
		INSERT INTO discounts (name, discount_percentage, commission_percentage, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+discountColumns, d.Name, d.DiscountPercentage, d.CommissionPercentage, d.Active))
	if err != nil {
		return Discount{}, fmt.Errorf("insert discount: %w", err)
	}
	return out, nil
}

func (s PGStore) Update(ctx context.Context, d Discount) (Discount, error) {
	out, err := scanDiscount(s.DB.QueryRow(ctx, `
		UPDATE discounts
		SET name = $2, discount_percentage = $3, commission_percentage = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+discountColumns, d.ID, d.Name, d.DiscountPercentage, d.CommissionPercentage, d.Active))
	if err != nil {
		return Discount{}, fmt.Errorf("update discount: %w", err)
	}
	return out, nil
}

func (s PGStore) Get(ctx context.Context, id uuid.UUID) (Discount, error) {
	return scanDiscount(s.DB.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
}

func (s PGStore) List(ctx context.Context, activeOnly bool, limit, offset int) ([]Discount, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM discounts WHERE active OR NOT $1`, activeOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count discounts: %w", err)
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+discountColumns+` FROM discounts
		WHERE active OR NOT $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3`, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list discounts: %w", err)
	}
	defer rows.Close()
	items := make([]Discount, 0, limit)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
