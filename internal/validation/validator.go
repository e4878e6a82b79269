package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps JSON field names to a list of validation error messages.
type FieldErrors map[string][]string

// ValidationError implements a DomainProblem (from internal/httpx) without importing it directly,
// by providing the required method set. This avoids cycles and lets httpx.ToProblem format it.
type ValidationError struct {
	summary string
	fields  FieldErrors
}

func (e *ValidationError) Error() string { return e.summary }

// Fields returns the per-field messages.
func (e *ValidationError) Fields() FieldErrors { return e.fields }

// Domain-problem methods (structural typing against httpx.DomainProblem)

func (e *ValidationError) ProblemCode() string    { return "ErrValidation" }
func (e *ValidationError) ProblemStatus() int     { return 400 }
func (e *ValidationError) ProblemTitle() string   { return "Validation error" }
func (e *ValidationError) ProblemDetail() string  { return e.summary }
func (e *ValidationError) ProblemTypeURI() string { return "urn:problem:validation-error" }
func (e *ValidationError) ProblemContext() any    { return map[string]any{"fields": e.fields} }

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names instead of struct field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.Split(fld.Tag.Get("json"), ",")[0]
			if name == "" || name == "-" {
				return lowerFirst(fld.Name)
			}
			return name
		})
	})
	return validate
}

// ValidateStruct validates a struct instance according to `validate` tags.
// On success it returns nil. On failure it returns a *ValidationError with:
// - summary: "invalid email, and N other errors" or "<field> <message>"
// - fields:  map of JSON field name to list of messages
func ValidateStruct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{summary: "validation failed", fields: FieldErrors{}}
	}

	fields := make(FieldErrors)
	var order []string
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; !seen {
			order = append(order, field)
		}
		fields[field] = append(fields[field], messageForTag(fe))
	}
	return &ValidationError{summary: summarize(fields, order), fields: fields}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "e164":
		return "must be a phone number in international format"
	default:
		return "is invalid"
	}
}

// summarize prefers "invalid email" when the email is malformed, otherwise the
// first failing field in declaration order.
func summarize(fields FieldErrors, order []string) string {
	total := 0
	for _, list := range fields {
		total += len(list)
	}

	for _, m := range fields["email"] {
		if strings.Contains(m, "valid email") {
			return withOthers("invalid email", total-1)
		}
	}

	if len(order) == 0 {
		order = make([]string, 0, len(fields))
		for k := range fields {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	for _, f := range order {
		if list := fields[f]; len(list) > 0 {
			return withOthers(f+" "+list[0], total-1)
		}
	}
	return "validation failed"
}

func withOthers(s string, others int) string {
	if others <= 0 {
		return s
	}
	return fmt.Sprintf("%s, and %d other error%s", s, others, plural(others))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return string(r)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
