package catalog

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

// Store persists products.
type Store interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	// Upsert writes p keyed by code and reports whether a new row was inserted.
	Upsert(ctx context.Context, p Product) (Product, bool, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	GetByCodes(ctx context.Context, codes []string) ([]Product, error)
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	// AdjustStock adds delta to the stock level; it fails with ErrStockExhausted
	// when the result would be negative.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (Product, error)
}

// ErrStockExhausted is returned when a stock adjustment would go below zero.
var ErrStockExhausted = errors.New("stock would become negative")

const productColumns = `id, code, name, base_price, stock, active, created_at, updated_at`

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB db.DBTX
}

func scanProduct(row pgx.Row, extra ...any) (Product, error) {
	var p Product
	dest := []any{&p.ID, &p.Code, &p.Name, &p.BasePrice, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func writeErr(op string, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s: product code already exists: %w", op, common.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s PGStore) Insert(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO products (code, name, base_price, stock, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns, p.Code, p.Name, p.BasePrice, p.Stock, p.Active)
	out, err := scanProduct(row)
	if err != nil {
		return Product{}, writeErr("insert product", err)
	}
	return out, nil
}

func (s PGStore) Update(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE products SET name = $2, base_price = $3, active = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, p.ID, p.Name, p.BasePrice, p.Active)
	out, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Product{}, err
		}
		return Product{}, writeErr("update product", err)
	}
	return out, nil
}

func (s PGStore) Upsert(ctx context.Context, p Product) (Product, bool, error) {
	var inserted bool
	row := s.DB.QueryRow(ctx, `
		INSERT INTO products (code, name, base_price, stock, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			base_price = EXCLUDED.base_price,
			stock = EXCLUDED.stock,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING `+productColumns+`, (xmax = 0) AS inserted`, p.Code, p.Name, p.BasePrice, p.Stock, p.Active)
	out, err := scanProduct(row, &inserted)
	if err != nil {
		return Product{}, false, writeErr("upsert product", err)
	}
	return out, inserted, nil
}

func (s PGStore) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (s PGStore) GetByCodes(ctx context.Context, codes []string) ([]Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("get products by code: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s PGStore) List(ctx context.Context, params ListParams) ([]Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if q := strings.TrimSpace(params.Search); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if params.ActiveOnly {
		where = append(where, "active")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	args = append(args, params.Limit, params.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		productColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	items := make([]Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (s PGStore) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING `+productColumns, id, delta))
	if errors.Is(err, common.ErrNotFound) {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return Product{}, getErr
		}
		return Product{}, ErrStockExhausted
	}
	return p, err
}
