package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/events"
	"github.com/noah-isme/backend-stock/internal/lock"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

// ProductLookup resolves active products for pricing.
type ProductLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (pricing.Product, error)
	LookupCodes(ctx context.Context, codes []string) (map[string]pricing.Product, []string, error)
}

// DiscountLookup resolves active discounts for pricing.
type DiscountLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (pricing.Discount, error)
}

// ExistenceChecker reports whether a referenced record exists.
type ExistenceChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Publisher emits domain events.
type Publisher interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (events.Event, error)
}

// Locker serialises work on one key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service coordinates order pricing, persistence and lifecycle.
type Service struct {
	Store      Store
	Products   ProductLookup
	Discounts  DiscountLookup
	Clients    ExistenceChecker
	Conditions ExistenceChecker
	Events     Publisher
	Lock       Locker
	LockTTL    time.Duration
	// UnknownDiscount is config.DiscountPolicyReject or config.DiscountPolicyIgnore.
	UnknownDiscount string
	Logger          zerolog.Logger
}

// Create prices the requested items and stores a new draft order.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	created, err := s.create(ctx, in)
	obs.CountOrderMutation("create", err)
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderCreated, created.ID, map[string]any{
		"number": created.Number,
		"items":  len(created.Items),
		"total":  created.Total,
	})
	return created, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (Order, error) {
	if err := pricing.ValidateShippingRate(in.ShippingRate); err != nil {
		return Order{}, err
	}
	if err := s.mustExist(ctx, s.Clients, "client", &in.ClientID); err != nil {
		return Order{}, err
	}
	if err := s.mustExist(ctx, s.Conditions, "payment_condition", in.PaymentConditionID); err != nil {
		return Order{}, err
	}
	lines, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return Order{}, err
	}
	agg := pricing.AggregateOrder(lines, pricing.Round2(in.ShippingRate))
	o := Order{
		ClientID:           in.ClientID,
		PaymentConditionID: in.PaymentConditionID,
		Status:             StatusDraft,
		Notes:              strings.TrimSpace(in.Notes),
	}
	applyAggregate(&o, agg)
	return s.Store.Create(ctx, o, lines)
}

// ReplaceItems reprices and swaps every line of an editable order.
func (s *Service) ReplaceItems(ctx context.Context, id uuid.UUID, items []ItemInput) (Order, ItemsWritten, error) {
	var (
		out     Order
		written ItemsWritten
	)
	err := s.mutate(ctx, id, "replace_items", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !Editable(current.Status) {
			return invalidState(current.Status, "edit items of")
		}
		lines, err := s.priceItems(ctx, items)
		if err != nil {
			return err
		}
		agg := pricing.AggregateOrder(lines, current.ShippingRate)
		written, err = s.Store.ReplaceItems(ctx, id, lines, agg)
		if err != nil {
			return stateErr(err, current.Status, "edit items of")
		}
		out, err = s.Store.Get(ctx, id)
		return err
	})
	if err != nil {
		return Order{}, ItemsWritten{}, err
	}
	s.emit(ctx, events.TopicOrderItemsReplaced, id, map[string]any{
		"mode":     "replace",
		"deleted":  written.Deleted,
		"inserted": written.Inserted,
		"total":    out.Total,
	})
	return out, written, nil
}

// AddItemsByCode appends lines identified by product code. Each line is
// priced on its own: unknown codes and rejected lines are reported while the
// rest are stored, and the order is re-aggregated once.
func (s *Service) AddItemsByCode(ctx context.Context, id uuid.UUID, lines []CodeLine) (BatchReport, error) {
	report := BatchReport{
		Added:    []Item{},
		NotFound: []LineRejection{},
		Failed:   []LineRejection{},
	}
	err := s.mutate(ctx, id, "add_items", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !Editable(current.Status) {
			return invalidState(current.Status, "add items to")
		}
		codes := make([]string, 0, len(lines))
		for _, l := range lines {
			codes = append(codes, l.Code)
		}
		found, _, err := s.Products.LookupCodes(ctx, codes)
		if err != nil {
			return err
		}

		inputs := make([]pricing.LineItemInput, 0, len(lines))
		origin := make([]int, 0, len(lines))
		for i, l := range lines {
			product, ok := found[strings.TrimSpace(l.Code)]
			if !ok {
				report.NotFound = append(report.NotFound, LineRejection{Index: i, Code: l.Code, ClientReference: l.ClientReference, Reason: "product not found or inactive"})
				continue
			}
			in, err := s.lineInput(ctx, product, l.Quantity, l.DiscountID, l.ClientReference)
			if err != nil {
				if !errors.Is(err, pricing.ErrNotFound) {
					return err
				}
				report.Failed = append(report.Failed, LineRejection{Index: i, Code: l.Code, ClientReference: l.ClientReference, Reason: err.Error()})
				continue
			}
			inputs = append(inputs, in)
			origin = append(origin, i)
		}
		batch := pricing.PriceBatch(inputs)
		obs.CountPricedLines(len(batch.Priced), len(batch.Failed))
		for _, f := range batch.Failed {
			i := origin[f.Index]
			report.Failed = append(report.Failed, LineRejection{Index: i, Code: lines[i].Code, ClientReference: f.ClientReference, Reason: f.Err.Error()})
		}

		added := batch.Results()
		if len(added) == 0 {
			report.Order = current
			return nil
		}
		agg := pricing.AggregateOrder(append(current.Lines(), added...), current.ShippingRate)
		report.Written, err = s.Store.AppendItems(ctx, id, added, agg)
		if err != nil {
			return stateErr(err, current.Status, "add items to")
		}
		report.Order, err = s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if len(report.Order.Items) >= len(current.Items) {
			report.Added = report.Order.Items[len(current.Items):]
		}
		return nil
	})
	if err != nil {
		return BatchReport{}, err
	}
	if report.Written.Inserted > 0 {
		s.emit(ctx, events.TopicOrderItemsReplaced, id, map[string]any{
			"mode":     "append",
			"inserted": report.Written.Inserted,
			"total":    report.Order.Total,
		})
	}
	return report, nil
}

// UpdateShipping parses a textual shipping rate and re-aggregates the order.
func (s *Service) UpdateShipping(ctx context.Context, id uuid.UUID, raw string) (Order, error) {
	rate, err := pricing.ParseAmount("shipping_rate", raw)
	if err != nil {
		return Order{}, err
	}
	if err := pricing.ValidateShippingRate(rate); err != nil {
		return Order{}, err
	}
	rate = pricing.Round2(rate)

	var out Order
	err = s.mutate(ctx, id, "update_shipping", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !Editable(current.Status) {
			return invalidState(current.Status, "change shipping of")
		}
		agg := pricing.AggregateOrder(current.Lines(), rate)
		if err := s.Store.UpdateAggregate(ctx, id, agg, true, false); err != nil {
			return stateErr(err, current.Status, "change shipping of")
		}
		out, err = s.Store.Get(ctx, id)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// Transition moves the order to target when the lifecycle allows it.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target Status) (Order, error) {
	var (
		out  Order
		from Status
	)
	err := s.mutate(ctx, id, "transition", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status
		if !CanTransition(current.Status, target) {
			return invalidState(current.Status, "move to "+string(target))
		}
		if err := s.Store.UpdateStatus(ctx, id, current.Status, target); err != nil {
			return stateErr(err, current.Status, "move to "+string(target))
		}
		out, err = s.Store.Get(ctx, id)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderStatusChanged, id, map[string]any{"from": from, "to": target})
	return out, nil
}

// Delete removes a draft or confirmed order.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var number int64
	err := s.mutate(ctx, id, "delete", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !CanDelete(current.Status) {
			return invalidState(current.Status, "delete")
		}
		number = current.Number
		return stateErr(s.Store.Delete(ctx, id), current.Status, "delete")
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.TopicOrderDeleted, id, map[string]any{"number": number})
	return nil
}

// Reconcile recomputes the aggregate from the stored items and rewrites the
// stored totals when any of them drifted beyond the tolerance.
func (s *Service) Reconcile(ctx context.Context, id uuid.UUID) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.mutate(ctx, id, "reconcile", func(ctx context.Context) error {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		computed := pricing.AggregateOrder(current.Lines(), current.ShippingRate)
		report = ReconcileReport{
			OrderID:  id,
			Stored:   current.Stored(),
			Computed: computed,
			Drift:    pricing.CompareAggregates(computed, current.Stored()),
		}
		if !report.Drift.Any() {
			return nil
		}
		if err := s.Store.UpdateAggregate(ctx, id, computed, false, true); err != nil {
			return err
		}
		report.Updated = true
		return nil
	})
	switch {
	case err != nil:
		obs.CountReconciliation("error")
		return ReconcileReport{}, err
	case report.Updated:
		obs.CountReconciliation("drift")
		log := obs.ContextLogger(ctx, s.Logger)
		log.Info().
			Str("order_id", id.String()).
			Str("stored_total", report.Stored.Total.StringFixed(2)).
			Str("computed_total", report.Computed.Total.StringFixed(2)).
			Msg("order totals reconciled")
		s.emit(ctx, events.TopicOrderReconciled, id, report)
	default:
		obs.CountReconciliation("in_sync")
	}
	return report, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.Store.Get(ctx, id)
}

// List returns a page of orders without items.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	return s.Store.List(ctx, filter)
}

// Candidates pages through the ids of orders eligible for reconciliation.
func (s *Service) Candidates(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return s.Store.ReconcileCandidates(ctx, after, limit)
}

// Quote prices items and aggregates them without persisting anything.
func (s *Service) Quote(ctx context.Context, items []ItemInput, shippingRate decimal.Decimal) (Quote, error) {
	if err := pricing.ValidateShippingRate(shippingRate); err != nil {
		return Quote{}, err
	}
	lines, err := s.priceItems(ctx, items)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Items: lines, Aggregate: pricing.AggregateOrder(lines, pricing.Round2(shippingRate))}, nil
}

// priceItems resolves and prices every input. Any rejected line fails the whole set.
func (s *Service) priceItems(ctx context.Context, items []ItemInput) ([]pricing.LineItemResult, error) {
	inputs := make([]pricing.LineItemInput, 0, len(items))
	for i, item := range items {
		product, err := s.Products.Lookup(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		in, err := s.lineInput(ctx, product, item.Quantity, item.DiscountID, item.ClientReference)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}
	batch := pricing.PriceBatch(inputs)
	obs.CountPricedLines(len(batch.Priced), len(batch.Failed))
	if len(batch.Failed) > 0 {
		return nil, rejectedLines(batch.Failed)
	}
	return batch.Results(), nil
}

// lineInput builds an engine input, applying the unknown-discount policy.
func (s *Service) lineInput(ctx context.Context, product pricing.Product, qty int, discountID *uuid.UUID, ref string) (pricing.LineItemInput, error) {
	in := pricing.LineItemInput{
		ProductID:       product.ID,
		Quantity:        qty,
		BasePrice:       product.BasePrice,
		ClientReference: strings.TrimSpace(ref),
		StockAvailable:  product.StockAvailable,
	}
	if discountID == nil || s.Discounts == nil {
		return in, nil
	}
	d, err := s.Discounts.Lookup(ctx, *discountID)
	switch {
	case err == nil:
		in.Discount = &d
	case errors.Is(err, pricing.ErrNotFound) && s.UnknownDiscount == config.DiscountPolicyIgnore:
		log := obs.ContextLogger(ctx, s.Logger)
		log.Warn().Str("discount_id", discountID.String()).Str("product_id", product.ID.String()).
			Msg("unknown discount ignored")
	default:
		return pricing.LineItemInput{}, err
	}
	return in, nil
}

func (s *Service) mustExist(ctx context.Context, checker ExistenceChecker, entity string, id *uuid.UUID) error {
	if checker == nil || id == nil {
		return nil
	}
	ok, err := checker.Exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("check %s: %w", entity, err)
	}
	if !ok {
		return &pricing.NotFoundError{Entity: entity, Key: id.String()}
	}
	return nil
}

// mutate runs fn under the order's lock and records the outcome.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, op string, fn func(context.Context) error) error {
	var err error
	if s.Lock == nil {
		err = fn(ctx)
	} else {
		err = s.Lock.WithLock(ctx, lock.OrderKey(id), s.LockTTL, fn)
		if errors.Is(err, lock.ErrNotAcquired) {
			err = common.NewAppError("ORDER_BUSY", "order is being modified, retry shortly", http.StatusConflict, err)
		}
	}
	obs.CountOrderMutation(op, err)
	return err
}

func (s *Service) emit(ctx context.Context, topic string, id uuid.UUID, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, id, payload); err != nil {
		log := obs.ContextLogger(ctx, s.Logger)
		log.Warn().Err(err).Str("topic", topic).Str("order_id", id.String()).Msg("emit order event")
	}
}

func applyAggregate(o *Order, agg pricing.OrderAggregate) {
	o.ShippingRate = agg.ShippingRate
	o.Subtotal = agg.Subtotal
	o.TotalDiscount = agg.TotalDiscount
	o.TotalCommission = agg.TotalCommission
	o.Total = agg.Total
	o.HasPendingItems = agg.HasPendingItems
}

// stateErr turns a store-level ErrInvalidState into the API error.
func stateErr(err error, current Status, action string) error {
	if errors.Is(err, ErrInvalidState) {
		var appErr *common.AppError
		if !errors.As(err, &appErr) {
			return invalidState(current, action)
		}
	}
	return err
}

func rejectedLines(failed []pricing.LineFailure) error {
	details := make([]LineRejection, 0, len(failed))
	for _, f := range failed {
		details = append(details, LineRejection{Index: f.Index, ClientReference: f.ClientReference, Reason: f.Err.Error()})
	}
	appErr := common.NewAppError("INVALID_LINE_ITEMS", "one or more line items are invalid", http.StatusUnprocessableEntity, failed[0].Err)
	appErr.Details = details
	return appErr
}
