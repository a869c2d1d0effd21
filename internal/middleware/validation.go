package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9./_-]{1,16}$`)

// Validator checks request structs with validator tags and reports
// failures as API errors. Field names come from the query tag.
type Validator struct {
	validator *validator.Validate
}

// NewValidator registers the custom "day" and "symbol" rules
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("day", isDay)
	v.RegisterValidation("symbol", isSymbol)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{validator: v}
}

// ValidateStruct validates v; the error is an *errors.APIError listing
// every failing field
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "day":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "symbol":
		return fmt.Sprintf("%s must be a valid symbol", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isDay validates a YYYY-MM-DD calendar date
func isDay(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func isSymbol(fl validator.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}
