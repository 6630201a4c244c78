package httpx

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/shared"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	validatorOnce sync.Once
	validate      *validator.Validate
)

// Validator returns the process-wide validator with the custom rules registered.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			switch value := field.Interface().(type) {
			case decimal.Decimal:
				return value.InexactFloat64()
			case decimal.NullDecimal:
				if !value.Valid {
					return nil
				}
				return value.Decimal.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{}, decimal.NullDecimal{})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("scale", validScale)
		validate = v
	})
	return validate
}

// validScale reports whether a decimal field has at most Param() decimal
// places. The custom type func hands rules a float64, so the decimal is read
// back from the parent struct.
func validScale(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return false
	}
	field := parent.FieldByName(fl.StructFieldName())
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	value, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return value.Equal(value.Round(int32(places)))
}

// Validate runs struct validation and converts failures to shared.FieldErrors
// keyed by JSON field name.
func Validate(target any) error {
	err := Validator().Struct(target)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	fields := shared.FieldErrors{}
	for _, fieldErr := range validationErrs {
		fields[fieldPath(fieldErr)] = message(fieldErr)
	}
	return fields
}

func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fieldErr.Field()
}

func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "slug":
		return "must contain lowercase letters, digits and single hyphens"
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "min", "gte":
		return "must be at least " + fieldErr.Param()
	case "max", "lte":
		return "must be at most " + fieldErr.Param()
	case "gt":
		return "must be greater than " + fieldErr.Param()
	case "scale":
		return "must have at most " + fieldErr.Param() + " decimal places"
	case "gtfield", "gtefield":
		return "must be after " + fieldErr.Param()
	default:
		return "is invalid"
	}
}
