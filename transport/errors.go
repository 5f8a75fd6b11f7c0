package transport

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorCodeTransportConfig  = "TALO_TRANSPORT_CONFIG"
	ErrorCodeResponseTooLarge = "TALO_RESPONSE_TOO_LARGE"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
