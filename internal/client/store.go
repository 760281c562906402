package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/db"
)

// Store persists clients.
type Store interface {
	Insert(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) (Client, error)
	Get(ctx context.Context, id uuid.UUID) (Client, error)
	List(ctx context.Context, search string, limit, offset int) ([]Client, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrHasOrders is returned when deleting a client that orders still reference.
var ErrHasOrders = errors.New("client has orders")

const clientColumns = `id, name, tax_id, email, phone, address, payment_condition_id, created_at, updated_at`

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB db.DBTX
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.PaymentConditionID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, common.ErrNotFound
	}
	return c, err
}

func (s PGStore) Insert(ctx context.Context, c Client) (Client, error) {
	out, err := scanClient(s.DB.QueryRow(ctx, `
		INSERT INTO clients (name, tax_id, email, phone, address, payment_condition_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns, c.Name, c.TaxID, c.Email, c.Phone, c.Address, c.PaymentConditionID))
	if err != nil {
		return Client{}, fmt.Errorf("insert client: %w", err)
	}
	return out, nil
}

func (s PGStore) Update(ctx context.Context, c Client) (Client, error) {
	out, err := scanClient(s.DB.QueryRow(ctx, `
		UPDATE clients
		SET name = $2, tax_id = $3, email = $4, phone = $5, address = $6, payment_condition_id = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns, c.ID, c.Name, c.TaxID, c.Email, c.Phone, c.Address, c.PaymentConditionID))
	if err != nil {
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return out, nil
}

func (s PGStore) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	return scanClient(s.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (s PGStore) List(ctx context.Context, search string, limit, offset int) ([]Client, int, error) {
	pattern := "%" + strings.TrimSpace(search) + "%"
	const where = `WHERE name ILIKE $1 OR tax_id ILIKE $1 OR email ILIKE $1`
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM clients `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	rows, err := s.DB.Query(ctx, `SELECT `+clientColumns+` FROM clients `+where+` ORDER BY lower(name), id LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	items := make([]Client, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (s PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasOrders
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
