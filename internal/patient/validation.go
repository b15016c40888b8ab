package patient

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// ValidationError maps a record field (by json name) to a human-readable problem.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, key := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}

	return "invalid patient record: " + strings.Join(msgs, "; ")
}

type recordValidator func(*Record) error

func newValidator() recordValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return func(r *Record) error {
		err := v.Struct(r)
		if err == nil {
			return nil
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate patient record: %w", err)
		}

		result := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			result.Fields[fe.Field()] = message(fe)
		}

		return result
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%v is below the minimum of %s", fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("%v is above the maximum of %s", fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("invalid value (failed on '%s' tag)", fe.Tag())
	}
}
