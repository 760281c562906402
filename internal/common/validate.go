package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks request payloads and reports failures per JSON field.
type Validator struct {
	v *validator.Validate
}

var (
	defaultValidatorOnce sync.Once
	defaultValidator     *Validator
)

// NewValidator builds a validator that reports JSON field names and treats
// decimal.Decimal fields as numbers, so gte/lte tags apply to amounts.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// DefaultValidator returns a shared validator for handlers that were not given one.
func DefaultValidator() *Validator {
	defaultValidatorOnce.Do(func() { defaultValidator = NewValidator() })
	return defaultValidator
}

// Struct validates s and converts failures into a 422 AppError whose details
// map JSON field names to the failed rule.
func (val *Validator) Struct(s any) error {
	if val == nil {
		val = DefaultValidator()
	}
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe)] = describe(fe)
	}
	appErr := NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity, err)
	appErr.Details = details
	return appErr
}

// DecodeJSON decodes the request body into dst and validates it.
func (val *Validator) DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		appErr := BadRequest("invalid payload", err)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			appErr.Details = map[string]any{"offset": syntaxErr.Offset}
		}
		return appErr
	}
	return val.Struct(dst)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}
