package core

// validation.go holds the shared form validator.
//
// Forms are validated with go-playground/validator struct tags. Field names
// in errors are the JSON names, and each form supplies the message shown to
// the operator for its fields. Only the first failing field is reported, in
// struct field order, so the operator fixes one thing at a time.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // JSON field name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("cpf", validateCPF)
	v.RegisterValidation("matricula", validateMatricula)
	v.RegisterValidation("isodate", validateISODate)

	return v
}

// validateCPF accepts exactly 11 ASCII digits.
func validateCPF(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 11 && OnlyDigits(s) == s
}

// validateMatricula accepts exactly four characters.
func validateMatricula(fl validator.FieldLevel) bool {
	return len([]rune(fl.Field().String())) == 4
}

// validateISODate accepts any date ParseDate understands.
func validateISODate(fl validator.FieldLevel) bool {
	_, ok := ParseDate(fl.Field().String())
	return ok
}

// checkStruct validates s and returns the first failure as a ValidationError
// carrying the message registered for the field. Fields named in except are
// skipped (Go field names).
func checkStruct(s any, messages map[string]string, except ...string) error {
	var err error
	if len(except) > 0 {
		err = validate.StructExcept(s, except...)
	} else {
		err = validate.Struct(s)
	}
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := fieldErrs[0]
	msg, ok := messages[fe.Field()]
	if !ok {
		msg = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return ValidationError{
		Field:   fe.Field(),
		Value:   fmt.Sprint(fe.Value()),
		Message: msg,
	}
}
