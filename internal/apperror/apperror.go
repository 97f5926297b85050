// Package apperror defines the error kinds shared by services and the HTTP edge.
package apperror

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a referenced video, comment or task log does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for empty required fields, malformed values and duplicate unique fields.
	ErrValidation = errors.New("validation failed")
	// ErrExternalService is returned when the text-generation API errors or returns no content.
	ErrExternalService = errors.New("external service failure")
)

// Error carries a human-readable message, an error kind and optional per-field details.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

// Unwrap lets errors.Is match the kind sentinel.
func (e *Error) Unwrap() error { return e.Kind }

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error with optional field details.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// ExternalService wraps a text-generation failure.
func ExternalService(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrExternalService, Message: fmt.Sprintf(format, args...)}
}

// Recoverable reports whether err is one of the expected kinds that batch loops skip over.
// Anything else is a programming or infrastructure error.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrExternalService)
}

// FieldsOf returns the field details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// FromValidator converts go-playground validator errors into a Validation error.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation(err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "This field is required."
		case "max":
			fields[name] = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "url":
			fields[name] = "Enter a valid URL."
		case "gte":
			fields[name] = fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		case "lte":
			fields[name] = fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		default:
			fields[name] = fmt.Sprintf("%s is invalid", fe.Field())
		}
	}
	return Validation("invalid input", fields)
}

func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
