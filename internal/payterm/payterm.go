// Package payterm manages the payment conditions offered to clients and orders.
package payterm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/db"
)

// Condition describes when and in how many installments an order is paid.
type Condition struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Days         int       `json:"days"`
	Installments int       `json:"installments"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input is the writable part of a condition.
type Input struct {
	Name         string `json:"name" validate:"required,max=120"`
	Days         int    `json:"days" validate:"gte=0,lte=3650"`
	Installments int    `json:"installments" validate:"gte=1,lte=120"`
	Active       *bool  `json:"active,omitempty"`
}

// Patch carries optional changes.
type Patch struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Days         *int    `json:"days,omitempty" validate:"omitempty,gte=0,lte=3650"`
	Installments *int    `json:"installments,omitempty" validate:"omitempty,gte=1,lte=120"`
	Active       *bool   `json:"active,omitempty"`
}

// Store persists payment conditions.
type Store interface {
	Insert(ctx context.Context, c Condition) (Condition, error)
	Update(ctx context.Context, c Condition) (Condition, error)
	Get(ctx context.Context, id uuid.UUID) (Condition, error)
	List(ctx context.Context, limit, offset int) ([]Condition, int, error)
}

const columns = `id, name, days, installments, active, created_at, updated_at`

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB db.DBTX
}

func scan(row pgx.Row) (Condition, error) {
	var c Condition
	err := row.Scan(&c.ID, &c.Name, &c.Days, &c.Installments, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Condition{}, common.ErrNotFound
	}
	return c, err
}

func (s PGStore) Insert(ctx context.Context, c Condition) (Condition, error) {
	out, err := scan(s.DB.QueryRow(ctx, `
		INSERT INTO payment_conditions (name, days, installments, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+columns, c.Name, c.Days, c.Installments, c.Active))
	if err != nil {
		return Condition{}, fmt.Errorf("insert payment condition: %w", err)
	}
	return out, nil
}

func (s PGStore) Update(ctx context.Context, c Condition) (Condition, error) {
	out, err := scan(s.DB.QueryRow(ctx, `
		UPDATE payment_conditions
		SET name = $2, days = $3, installments = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+columns, c.ID, c.Name, c.Days, c.Installments, c.Active))
	if err != nil {
		return Condition{}, fmt.Errorf("update payment condition: %w", err)
	}
	return out, nil
}

func (s PGStore) Get(ctx context.Context, id uuid.UUID) (Condition, error) {
	return scan(s.DB.QueryRow(ctx, `SELECT `+columns+` FROM payment_conditions WHERE id = $1`, id))
}

func (s PGStore) List(ctx context.Context, limit, offset int) ([]Condition, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM payment_conditions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payment conditions: %w", err)
	}
	rows, err := s.DB.Query(ctx, `SELECT `+columns+` FROM payment_conditions ORDER BY days, name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment conditions: %w", err)
	}
	defer rows.Close()
	items := make([]Condition, 0, limit)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// Service manages payment conditions.
type Service struct {
	Store Store
}

func (s *Service) Create(ctx context.Context, in Input) (Condition, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return s.Store.Insert(ctx, Condition{
		Name:         strings.TrimSpace(in.Name),
		Days:         in.Days,
		Installments: in.Installments,
		Active:       active,
	})
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Condition, error) {
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return Condition{}, err
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Days != nil {
		c.Days = *patch.Days
	}
	if patch.Installments != nil {
		c.Installments = *patch.Installments
	}
	if patch.Active != nil {
		c.Active = *patch.Active
	}
	return s.Store.Update(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Condition, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Condition, int, error) {
	return s.Store.List(ctx, limit, offset)
}

// Exists reports whether id names a stored condition.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.Store.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
