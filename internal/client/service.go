package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

// ConditionChecker reports whether a payment condition exists.
type ConditionChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service manages clients.
type Service struct {
	Store      Store
	Conditions ConditionChecker
}

func (s *Service) Create(ctx context.Context, in Input) (Client, error) {
	if err := s.checkCondition(ctx, in.PaymentConditionID); err != nil {
		return Client{}, err
	}
	return s.Store.Insert(ctx, Client{
		Name:               strings.TrimSpace(in.Name),
		TaxID:              strings.TrimSpace(in.TaxID),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              strings.TrimSpace(in.Phone),
		Address:            strings.TrimSpace(in.Address),
		PaymentConditionID: in.PaymentConditionID,
	})
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Client, error) {
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if err := s.checkCondition(ctx, patch.PaymentConditionID); err != nil {
		return Client{}, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&c.Name, patch.Name)
	set(&c.TaxID, patch.TaxID)
	set(&c.Email, patch.Email)
	set(&c.Phone, patch.Phone)
	set(&c.Address, patch.Address)
	c.Email = strings.ToLower(c.Email)
	switch {
	case patch.ClearPaymentCondition:
		c.PaymentConditionID = nil
	case patch.PaymentConditionID != nil:
		c.PaymentConditionID = patch.PaymentConditionID
	}
	return s.Store.Update(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]Client, int, error) {
	return s.Store.List(ctx, search, limit, offset)
}

// Delete removes a client that no order references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.Store.Delete(ctx, id)
	if errors.Is(err, ErrHasOrders) {
		return common.NewAppError("CLIENT_HAS_ORDERS", "client is referenced by orders", http.StatusConflict, err)
	}
	return err
}

// Exists reports whether id names a stored client.
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

func (s *Service) checkCondition(ctx context.Context, id *uuid.UUID) error {
	if id == nil || s.Conditions == nil {
		return nil
	}
	ok, err := s.Conditions.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return &pricing.NotFoundError{Entity: "payment_condition", Key: id.String()}
	}
	return nil
}
