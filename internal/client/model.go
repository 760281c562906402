package client

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer that orders are placed for.
type Client struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	TaxID              string     `json:"tax_id"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address"`
	PaymentConditionID *uuid.UUID `json:"payment_condition_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Input is the writable part of a client.
type Input struct {
	Name               string     `json:"name" validate:"required,max=200"`
	TaxID              string     `json:"tax_id" validate:"max=32"`
	Email              string     `json:"email" validate:"omitempty,email"`
	Phone              string     `json:"phone" validate:"max=32"`
	Address            string     `json:"address" validate:"max=500"`
	PaymentConditionID *uuid.UUID `json:"payment_condition_id,omitempty"`
}

// Patch carries optional client changes. ClearPaymentCondition removes the
// default condition.
type Patch struct {
	Name                  *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	TaxID                 *string    `json:"tax_id,omitempty" validate:"omitempty,max=32"`
	Email                 *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone                 *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address               *string    `json:"address,omitempty" validate:"omitempty,max=500"`
	PaymentConditionID    *uuid.UUID `json:"payment_condition_id,omitempty"`
	ClearPaymentCondition bool       `json:"clear_payment_condition,omitempty"`
}
