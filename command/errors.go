package command

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/core"
)

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorCodeInternal)
}

func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeInvalidRequest).
		WithSeverity(goerrors.SeverityError)
}

func commandWrapValidation(err error, message string) error {
	if err == nil {
		return nil
	}
	wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeInvalidRequest)
	wrapped.ValidationErrors = append(wrapped.ValidationErrors, core.FieldErrors(err)...)
	return wrapped
}
