package order_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/events"
	"github.com/noah-isme/backend-stock/internal/order"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

type memStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
	seq    int64
}

func newMemStore() *memStore { return &memStore{orders: map[uuid.UUID]order.Order{}} }

func toItems(orderID uuid.UUID, first int, lines []pricing.LineItemResult) []order.Item {
	items := make([]order.Item, 0, len(lines))
	for i, l := range lines {
		items = append(items, order.Item{ID: uuid.New(), OrderID: orderID, Position: first + i, LineItemResult: l})
	}
	return items
}

func setTotals(o *order.Order, agg pricing.OrderAggregate) {
	o.ShippingRate = agg.ShippingRate
	o.Subtotal = agg.Subtotal
	o.TotalDiscount = agg.TotalDiscount
	o.TotalCommission = agg.TotalCommission
	o.Total = agg.Total
	o.HasPendingItems = agg.HasPendingItems
}

func (m *memStore) editable(id uuid.UUID) (order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, common.ErrNotFound
	}
	if !order.Editable(o.Status) {
		return order.Order{}, order.ErrInvalidState
	}
	return o, nil
}

func (m *memStore) Create(_ context.Context, o order.Order, lines []pricing.LineItemResult) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	o.ID = uuid.New()
	o.Number = m.seq
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	o.Items = toItems(o.ID, 1, lines)
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, common.ErrNotFound
	}
	o.Items = append([]order.Item{}, o.Items...)
	return o, nil
}

func (m *memStore) List(_ context.Context, f order.ListFilter) ([]order.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if f.ClientID != nil && o.ClientID != *f.ClientID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		o.Items = nil
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, len(out), nil
}

func (m *memStore) ReplaceItems(_ context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (order.ItemsWritten, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.editable(id)
	if err != nil {
		return order.ItemsWritten{}, err
	}
	written := order.ItemsWritten{Deleted: len(o.Items), Inserted: len(lines)}
	o.Items = toItems(id, 1, lines)
	setTotals(&o, agg)
	m.orders[id] = o
	return written, nil
}

func (m *memStore) AppendItems(_ context.Context, id uuid.UUID, lines []pricing.LineItemResult, agg pricing.OrderAggregate) (order.ItemsWritten, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.editable(id)
	if err != nil {
		return order.ItemsWritten{}, err
	}
	o.Items = append(o.Items, toItems(id, len(o.Items)+1, lines)...)
	setTotals(&o, agg)
	m.orders[id] = o
	return order.ItemsWritten{Inserted: len(lines)}, nil
}

func (m *memStore) UpdateAggregate(_ context.Context, id uuid.UUID, agg pricing.OrderAggregate, editableOnly, reconciled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return common.ErrNotFound
	}
	if editableOnly && !order.Editable(o.Status) {
		return order.ErrInvalidState
	}
	setTotals(&o, agg)
	if reconciled {
		now := time.Now()
		o.ReconciledAt = &now
	}
	m.orders[id] = o
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to order.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return common.ErrNotFound
	}
	if o.Status != from {
		return order.ErrInvalidState
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.editable(id); err != nil {
		return err
	}
	delete(m.orders, id)
	return nil
}

func (m *memStore) ReconcileCandidates(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, o := range m.orders {
		if o.Status != order.StatusCancelled && id.String() > after.String() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// corrupt overwrites stored totals, simulating drift introduced outside the service.
func (m *memStore) corrupt(id uuid.UUID, subtotal, total string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	o.Subtotal = decimal.RequireFromString(subtotal)
	o.Total = decimal.RequireFromString(total)
	m.orders[id] = o
}

func (m *memStore) setStatus(id uuid.UUID, s order.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	o.Status = s
	m.orders[id] = o
}

type catalogFake struct {
	byID   map[uuid.UUID]pricing.Product
	byCode map[string]pricing.Product
}

func newCatalog(products ...pricing.Product) *catalogFake {
	c := &catalogFake{byID: map[uuid.UUID]pricing.Product{}, byCode: map[string]pricing.Product{}}
	for _, p := range products {
		c.byID[p.ID] = p
		c.byCode[p.Code] = p
	}
	return c
}

func (c *catalogFake) Lookup(_ context.Context, id uuid.UUID) (pricing.Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return pricing.Product{}, &pricing.NotFoundError{Entity: "product", Key: id.String()}
	}
	return p, nil
}

func (c *catalogFake) LookupCodes(_ context.Context, codes []string) (map[string]pricing.Product, []string, error) {
	found := map[string]pricing.Product{}
	var missing []string
	for _, code := range codes {
		if p, ok := c.byCode[code]; ok {
			found[code] = p
		} else {
			missing = append(missing, code)
		}
	}
	return found, missing, nil
}

type discountFake map[uuid.UUID]pricing.Discount

func (d discountFake) Lookup(_ context.Context, id uuid.UUID) (pricing.Discount, error) {
	disc, ok := d[id]
	if !ok {
		return pricing.Discount{}, &pricing.NotFoundError{Entity: "discount", Key: id.String()}
	}
	return disc, nil
}

type existsFake map[uuid.UUID]bool

func (e existsFake) Exists(_ context.Context, id uuid.UUID) (bool, error) { return e[id], nil }

type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) Emit(_ context.Context, topic string, id uuid.UUID, _ any) (events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return events.Event{ID: uuid.New(), Topic: topic, AggregateID: id}, nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}
