// Package schema validates untyped integration payloads against the data
// shapes tasksync expects from its calendar and reminder providers.
//
// Contract: constraint violations (missing required field, value outside an
// enum, out-of-range number, malformed email or url) are collected — the
// returned *Error lists every violated field, not just the first. A payload
// that is not well-formed JSON for the target shape (wrong JSON type, or a
// string where a date is expected) is rejected with a single violation
// describing the decode failure. Dates are accepted only as RFC 3339
// timestamps; date-like strings in other formats are never coerced.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation describes one failed constraint on a named field.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// Error is the structured rejection returned when a payload fails
// validation.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "schema: invalid payload"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Field == "" {
			parts[i] = v.Message
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "schema: " + strings.Join(parts, "; ")
}

// Fields returns the names of all violated fields, in order.
func (e *Error) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode unmarshals data into payload and runs constraint validation,
// translating failures into *Error.
func decode(data []byte, payload any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(payload); err != nil {
		return decodeError(err)
	}
	if err := validate.Struct(payload); err != nil {
		return constraintError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &Error{Violations: []Violation{{
			Field:      typeErr.Field,
			Constraint: "type",
			Message:    fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}}}
	}
	return &Error{Violations: []Violation{{
		Constraint: "type",
		Message:    err.Error(),
	}}}
}

func constraintError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Violations: []Violation{{Constraint: "invalid", Message: err.Error()}}}
	}
	violations := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, Violation{
			Field:      trimNamespace(fe.Namespace()),
			Constraint: constraintName(fe.Tag()),
			Message:    constraintMessage(fe),
		})
	}
	return &Error{Violations: violations}
}

// trimNamespace drops the payload type prefix from a validator namespace,
// leaving the json-tag field path ("attendees[0].email").
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func constraintName(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "oneof":
		return "enum"
	case "gte", "lte", "min", "max":
		return "range"
	case "email":
		return "email"
	case "url":
		return "url"
	}
	return tag
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed constraint %q", fe.Tag())
}

// parseSlice validates an array payload element-wise, collecting violations
// from every element. Field paths are qualified with the collection name and
// element index ("events[3].id").
func parseSlice[T any](data []byte, collection string, parseOne func([]byte) (T, error)) ([]T, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, decodeError(err)
	}
	out := make([]T, 0, len(raws))
	var violations []Violation
	for i, raw := range raws {
		item, err := parseOne(raw)
		if err != nil {
			var serr *Error
			if !errors.As(err, &serr) {
				return nil, err
			}
			for _, v := range serr.Violations {
				v.Field = indexField(collection, i, v.Field)
				violations = append(violations, v)
			}
			continue
		}
		out = append(out, item)
	}
	if len(violations) > 0 {
		return nil, &Error{Violations: violations}
	}
	return out, nil
}

func indexField(collection string, i int, field string) string {
	if field == "" {
		return fmt.Sprintf("%s[%d]", collection, i)
	}
	return fmt.Sprintf("%s[%d].%s", collection, i, field)
}
