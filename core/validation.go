package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const rootFieldPath = "body"

// FieldErrors flattens a contract failure into sorted field paths such as
// "data.transactions[0].amount".
func FieldErrors(err error) []goerrors.FieldError {
	if err == nil {
		return nil
	}
	fields := []goerrors.FieldError{}
	collectFieldErrors("", err, &fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})
	return fields
}

// ValidateContract runs Validate on value when it implements Validatable.
func ValidateContract(value any) error {
	if value == nil {
		return nil
	}
	validatable, ok := value.(Validatable)
	if !ok {
		return nil
	}
	return validatable.Validate()
}

func collectFieldErrors(prefix string, err error, out *[]goerrors.FieldError) {
	var nested validation.Errors
	if errors.As(err, &nested) {
		for key, child := range nested {
			if child == nil {
				continue
			}
			collectFieldErrors(joinFieldPath(prefix, key), child, out)
		}
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := prefix
		if typeErr.Field != "" {
			field = joinFieldPath(prefix, typeErr.Field)
		}
		*out = append(*out, goerrors.FieldError{
			Field:   fieldOrRoot(field),
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
		return
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		*out = append(*out, goerrors.FieldError{
			Field:   fieldOrRoot(prefix),
			Message: fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset),
		})
		return
	}

	*out = append(*out, goerrors.FieldError{
		Field:   fieldOrRoot(prefix),
		Message: err.Error(),
	})
}

func joinFieldPath(prefix string, key string) string {
	key = strings.TrimSpace(key)
	if _, err := strconv.Atoi(key); err == nil {
		return prefix + "[" + key + "]"
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func fieldOrRoot(field string) string {
	if strings.TrimSpace(field) == "" {
		return rootFieldPath
	}
	return field
}
