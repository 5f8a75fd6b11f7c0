package sqlstore

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorCodeStoreConfig = "TALO_STORE_CONFIG"
	ErrorCodeNotFound    = "TALO_STORE_NOT_FOUND"
)

func configError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorCodeStoreConfig)
}

func notFoundError(message string, metadata map[string]any) error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(ErrorCodeNotFound).
		WithMetadata(metadata)
}
