package order

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrInvalidState is returned when an operation is not allowed in the order's current status.
var ErrInvalidState = errors.New("order: operation not allowed in current status")

var transitions = map[Status][]Status{
	StatusDraft:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// ParseStatus validates a textual status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusDraft, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether items and shipping may still change.
func Editable(s Status) bool {
	return s == StatusDraft || s == StatusConfirmed
}

// CanDelete reports whether an order in status s may be deleted.
func CanDelete(s Status) bool {
	return Editable(s)
}

// editableStatuses lists the statuses stores accept for item and shipping writes.
func editableStatuses() []string {
	return []string{string(StatusDraft), string(StatusConfirmed)}
}

func invalidState(current Status, action string) error {
	appErr := common.NewAppError("INVALID_STATE", fmt.Sprintf("cannot %s an order in status %s", action, current), http.StatusConflict, ErrInvalidState)
	appErr.Details = map[string]string{"status": string(current)}
	return appErr
}
