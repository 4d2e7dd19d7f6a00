package quoteform

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/koshtorys/internal/pricing"
)

var hundred = decimal.NewFromInt(100)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a quote input.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid quote input: " + strings.Join(parts, "; ")
}

// Validator checks quote input before it reaches the pricing engine.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the amount, percent and stone vocabulary rules.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		_, ok := decimalField(fl)
		return ok
	})
	mustRegister(v, "percent", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.LessThanOrEqual(hundred)
	})
	mustRegister(v, "stone_type", func(fl validator.FieldLevel) bool {
		_, err := pricing.ParseStoneType(strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	mustRegister(v, "stone_size", func(fl validator.FieldLevel) bool {
		_, err := pricing.ParseStoneSize(strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := ParseDecimal(fl.Field().String())
	return d, err == nil
}

// Validate returns a *ValidationError describing every bad field, or nil.
func (v *Validator) Validate(in QuoteInput) error {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out.Fields = append(out.Fields, FieldError{Field: field, Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return "must be a non-negative number"
	case "percent":
		return "must be a percentage between 0 and 100"
	case "stone_type":
		return "must be one of " + joinStoneTypes()
	case "stone_size":
		return "is not a known stone size"
	case "number":
		return "must be a whole number"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "allows at most " + fe.Param() + " entries"
		}
		return "is too long"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func joinStoneTypes() string {
	names := make([]string, len(pricing.StoneTypes))
	for i, t := range pricing.StoneTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
