package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

type discountPayload struct {
	Name     string          `json:"name" validate:"required"`
	Discount decimal.Decimal `json:"discount_percentage" validate:"gte=0,lte=100"`
}

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := common.NewValidator()
	err := v.Struct(discountPayload{Discount: decimal.NewFromInt(120)})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "required", details["name"])
	require.Equal(t, "lte=100", details["discount_percentage"])

	require.NoError(t, v.Struct(discountPayload{Name: "vip", Discount: decimal.RequireFromString("12.5")}))
}

func TestDecodeJSONRejectsMalformedAmounts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","discount_percentage":"NaN"}`))
	var dst discountPayload
	err := common.DefaultValidator().DecodeJSON(req, &dst)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestWriteErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&pricing.ValidationError{Field: "quantity", Reason: "must be greater than zero"}, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{&pricing.NotFoundError{Entity: "discount", Key: "x"}, http.StatusNotFound, "NOT_FOUND"},
		{common.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{common.ErrConflict, http.StatusConflict, "CONFLICT"},
		{common.NewAppError("INVALID_STATE", "nope", http.StatusConflict, nil), http.StatusConflict, "INVALID_STATE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		common.WriteError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
		var body struct {
			Error common.ErrorBody `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.code, body.Error.Code)
	}
}
