package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/db"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

// Store persists orders and their items. Every write is atomic.
type Store interface {
	Create(ctx context.Context, o Order, lines []pricing.LineItemResult) (Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	// ReplaceItems swaps every item of an editable order for lines and stores agg.
	ReplaceItems(ctx context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (ItemsWritten, error)
	// AppendItems adds lines after the existing items of an editable order and stores agg.
	AppendItems(ctx context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (ItemsWritten, error)
	// UpdateAggregate rewrites stored totals. editableOnly restricts the write to draft and confirmed orders.
	UpdateAggregate(ctx context.Context, id uuid.UUID, agg pricing.OrderAggregate, editableOnly, reconciled bool) error
	// UpdateStatus moves an order from one status to another; it fails with ErrInvalidState if from no longer holds.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	// Delete removes an editable order.
	Delete(ctx context.Context, id uuid.UUID) error
	// ReconcileCandidates pages through order ids after the given id, skipping cancelled orders.
	ReconcileCandidates(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// DB is the connection the PostgreSQL store needs; *pgxpool.Pool satisfies it.
type DB interface {
	db.DBTX
	db.TxBeginner
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB DB
}

const orderColumns = `id, number, client_id, payment_condition_id, status, shipping_rate, subtotal,
	total_discount, total_commission, total, has_pending_items, notes, reconciled_at, created_at, updated_at`

const itemColumns = `id, order_id, position, product_id, discount_id, quantity, discount_percentage,
	commission_percentage, client_reference, unit_price_original, unit_price_final, line_subtotal,
	discount_amount, commission_amount, pending_quantity, has_pending`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.Number, &o.ClientID, &o.PaymentConditionID, &status, &o.ShippingRate, &o.Subtotal,
		&o.TotalDiscount, &o.TotalCommission, &o.Total, &o.HasPendingItems, &o.Notes, &o.ReconciledAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, common.ErrNotFound
	}
	o.Status = Status(status)
	return o, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.OrderID, &it.Position, &it.ProductID, &it.DiscountID, &it.Quantity, &it.DiscountPercentage,
		&it.CommissionPercentage, &it.ClientReference, &it.UnitPriceOriginal, &it.UnitPriceFinal, &it.LineSubtotal,
		&it.DiscountAmount, &it.CommissionAmount, &it.PendingQuantity, &it.HasPending)
	return it, err
}

func (s PGStore) Create(ctx context.Context, o Order, lines []pricing.LineItemResult) (Order, error) {
	var out Order
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		created, err := scanOrder(tx.QueryRow(ctx, `
			INSERT INTO orders (client_id, payment_condition_id, status, shipping_rate, subtotal,
				total_discount, total_commission, total, has_pending_items, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+orderColumns,
			o.ClientID, o.PaymentConditionID, string(o.Status), o.ShippingRate, o.Subtotal,
			o.TotalDiscount, o.TotalCommission, o.Total, o.HasPendingItems, o.Notes))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		items, err := insertItems(ctx, tx, created.ID, 1, lines)
		if err != nil {
			return err
		}
		created.Items = items
		out = created
		return nil
	})
	return out, err
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, firstPosition int, lines []pricing.LineItemResult) ([]Item, error) {
	items := make([]Item, 0, len(lines))
	if len(lines) == 0 {
		return items, nil
	}
	batch := &pgx.Batch{}
	for i, line := range lines {
		batch.Queue(`
			INSERT INTO order_items (order_id, position, product_id, discount_id, quantity, discount_percentage,
				commission_percentage, client_reference, unit_price_original, unit_price_final, line_subtotal,
				discount_amount, commission_amount, pending_quantity, has_pending)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+itemColumns,
			orderID, firstPosition+i, line.ProductID, line.DiscountID, line.Quantity, line.DiscountPercentage,
			line.CommissionPercentage, line.ClientReference, line.UnitPriceOriginal, line.UnitPriceFinal, line.LineSubtotal,
			line.DiscountAmount, line.CommissionAmount, line.PendingQuantity, line.HasPending)
	}
	results := tx.SendBatch(ctx, batch)
	for range lines {
		it, err := scanItem(results.QueryRow())
		if err != nil {
			_ = results.Close()
			if db.IsForeignKeyViolation(err) {
				return nil, fmt.Errorf("insert order item: %w", &pricing.NotFoundError{Entity: "product or discount", Key: orderID.String()})
			}
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		items = append(items, it)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}
	return items, nil
}

func (s PGStore) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	rows, err := s.DB.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	o.Items = []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (s PGStore) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY number DESC LIMIT $%d OFFSET $%d`,
		orderColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	out := make([]Order, 0, filter.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// writeTotals stores agg on an editable order inside tx and explains a miss.
func writeTotals(ctx context.Context, tx pgx.Tx, id uuid.UUID, agg pricing.OrderAggregate) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET shipping_rate = $2, subtotal = $3, total_discount = $4, total_commission = $5, total = $6,
			has_pending_items = $7, updated_at = now()
		WHERE id = $1 AND status = ANY($8)`,
		id, agg.ShippingRate, agg.Subtotal, agg.TotalDiscount, agg.TotalCommission, agg.Total, agg.HasPendingItems, editableStatuses())
	if err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, tx, id)
	}
	return nil
}

func missReason(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load order status: %w", err)
	}
	return ErrInvalidState
}

func (s PGStore) ReplaceItems(ctx context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (ItemsWritten, error) {
	var written ItemsWritten
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := writeTotals(ctx, tx, id, agg); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		items, err := insertItems(ctx, tx, id, 1, lines)
		if err != nil {
			return err
		}
		written = ItemsWritten{Deleted: int(tag.RowsAffected()), Inserted: len(items)}
		return nil
	})
	return written, err
}

func (s PGStore) AppendItems(ctx context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (ItemsWritten, error) {
	var written ItemsWritten
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := writeTotals(ctx, tx, id, agg); err != nil {
			return err
		}
		var last int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM order_items WHERE order_id = $1`, id).Scan(&last); err != nil {
			return fmt.Errorf("load last item position: %w", err)
		}
		items, err := insertItems(ctx, tx, id, last+1, lines)
		if err != nil {
			return err
		}
		written = ItemsWritten{Inserted: len(items)}
		return nil
	})
	return written, err
}

func (s PGStore) UpdateAggregate(ctx context.Context, id uuid.UUID, agg pricing.OrderAggregate, editableOnly, reconciled bool) error {
	statuses := editableStatuses()
	if !editableOnly {
		statuses = nil
	}
	tag, err := s.DB.Exec(ctx, `
		UPDATE orders
		SET shipping_rate = $2, subtotal = $3, total_discount = $4, total_commission = $5, total = $6,
			has_pending_items = $7,
			reconciled_at = CASE WHEN $9 THEN now() ELSE reconciled_at END,
			updated_at = now()
		WHERE id = $1 AND ($8::text[] IS NULL OR status = ANY($8))`,
		id, agg.ShippingRate, agg.Subtotal, agg.TotalDiscount, agg.TotalCommission, agg.Total, agg.HasPendingItems, statuses, reconciled)
	if err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, s.DB, id)
	}
	return nil
}

func (s PGStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := s.DB.Exec(ctx, `UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, s.DB, id)
	}
	return nil
}

func (s PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND status = ANY($2)`, id, editableStatuses())
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, s.DB, id)
	}
	return nil
}

func (s PGStore) ReconcileCandidates(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id FROM orders
		WHERE status <> $1 AND id > $2
		ORDER BY id
		LIMIT $3`, string(StatusCancelled), after, limit)
	if err != nil {
		return nil, fmt.Errorf("list reconcile candidates: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
