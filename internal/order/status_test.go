package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/common"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusDraft, StatusConfirmed},
		{StatusConfirmed, StatusProcessing},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
		{StatusDraft, StatusCancelled},
		{StatusConfirmed, StatusCancelled},
	}
	for _, tc := range allowed {
		require.True(t, CanTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}

	denied := [][2]Status{
		{StatusDraft, StatusProcessing},
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusDraft},
		{StatusConfirmed, StatusDraft},
		{StatusDelivered, StatusDelivered},
	}
	for _, tc := range denied {
		require.False(t, CanTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}
}

func TestEditableAndDeletable(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusConfirmed} {
		require.True(t, Editable(s))
		require.True(t, CanDelete(s))
	}
	for _, s := range []Status{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		require.False(t, Editable(s))
		require.False(t, CanDelete(s))
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, s)

	_, err = ParseStatus("paid")
	require.Error(t, err)
}

func TestInvalidStateError(t *testing.T) {
	err := invalidState(StatusShipped, "delete")
	require.ErrorIs(t, err, ErrInvalidState)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "INVALID_STATE", appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)
}
