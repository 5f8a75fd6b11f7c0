package core

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorCodeAPI                = "TALO_API_ERROR"
	ErrorCodeUnexpectedResponse = "TALO_UNEXPECTED_RESPONSE"
	ErrorCodeInvalidRequest     = "TALO_INVALID_REQUEST"
	ErrorCodeInvalidConfig      = "TALO_INVALID_CONFIG"
	ErrorCodeInternal           = "TALO_INTERNAL_ERROR"
)

const (
	MessageUnexpectedResponse     = "Unexpected response from Talo API"
	MessageUnexpectedAuthResponse = "Unexpected response from Talo auth endpoint"
	MessageInvalidRequest         = "Talo request failed validation"
)

// Metadata keys carried by every normalized error.
const (
	MetaStatusCode = "status_code"
	MetaErrorCode  = "error_code"
	MetaRequestID  = "request_id"
	MetaRawBody    = "raw_body"
	MetaDetails    = "details"
)

// NewAPIError normalizes a non-2xx response. body is the decoded JSON payload
// (nil when empty, a string when it was not JSON). The provider envelope is
// read best-effort: message, then error (when a string), then detail.
func NewAPIError(statusCode int, body any, requestID string, rawBody string) *goerrors.Error {
	message := fmt.Sprintf("Talo API request failed with HTTP %d", statusCode)
	var errorCode any
	details := body

	if envelope, ok := parseErrorEnvelope(body); ok {
		if text := envelope.humanMessage(); text != "" {
			message = text
		}
		errorCode = envelope.Code
		details = envelope.Errors
	}

	err := goerrors.New(message, apiErrorCategory(statusCode)).
		WithCode(statusCode).
		WithTextCode(errorTextCode(errorCode, ErrorCodeAPI))
	err.WithMetadata(errorMetadata(statusCode, errorCode, requestID, rawBody, details))
	return err
}

// NewUnexpectedResponseError reports a 2xx response that broke its contract.
func NewUnexpectedResponseError(
	message string,
	statusCode int,
	requestID string,
	rawBody string,
	cause error,
) *goerrors.Error {
	if strings.TrimSpace(message) == "" {
		message = MessageUnexpectedResponse
	}
	fields := FieldErrors(cause)

	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, goerrors.CategoryExternal, message)
	} else {
		err = goerrors.New(message, goerrors.CategoryExternal)
	}
	err = err.WithCode(statusCode).WithTextCode(ErrorCodeUnexpectedResponse)
	err.ValidationErrors = append(err.ValidationErrors, fields...)
	err.WithMetadata(errorMetadata(statusCode, nil, requestID, rawBody, detailsFromFields(fields)))
	return err
}

// NewInvalidRequestError reports a request that failed its contract before
// any network access. It never carries a status code.
func NewInvalidRequestError(cause error) *goerrors.Error {
	if cause == nil {
		return nil
	}
	if rich, ok := AsError(cause); ok && rich.TextCode == ErrorCodeInvalidRequest {
		return rich
	}
	fields := FieldErrors(cause)
	err := goerrors.Wrap(cause, goerrors.CategoryValidation, MessageInvalidRequest).
		WithTextCode(ErrorCodeInvalidRequest).
		WithSeverity(goerrors.SeverityError)
	err.ValidationErrors = append(err.ValidationErrors, fields...)
	err.WithMetadata(errorMetadata(0, nil, "", "", detailsFromFields(fields)))
	return err
}

func NewFieldError(field string, message string) *goerrors.Error {
	err := goerrors.NewValidation(MessageInvalidRequest, goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithTextCode(ErrorCodeInvalidRequest).
		WithSeverity(goerrors.SeverityError)
	err.WithMetadata(map[string]any{
		MetaDetails: []map[string]string{{"field": field, "message": message}},
	})
	return err
}

func NewConfigError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(ErrorCodeInvalidConfig)
}

func NewDependencyError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorCodeInternal)
}

func AsError(err error) (*goerrors.Error, bool) {
	if err == nil {
		return nil, false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		return rich, true
	}
	return nil, false
}

// StatusCode returns the HTTP status observed for err, or 0 when no round
// trip happened.
func StatusCode(err error) int {
	value, ok := metadataValue(err, MetaStatusCode)
	if !ok {
		return 0
	}
	status, _ := value.(int)
	return status
}

// ErrorCode returns the provider's machine code (string or number) when the
// error body carried one.
func ErrorCode(err error) any {
	value, _ := metadataValue(err, MetaErrorCode)
	return value
}

func RequestID(err error) string {
	value, _ := metadataValue(err, MetaRequestID)
	text, _ := value.(string)
	return text
}

func RawBody(err error) string {
	value, _ := metadataValue(err, MetaRawBody)
	text, _ := value.(string)
	return text
}

func Details(err error) any {
	value, _ := metadataValue(err, MetaDetails)
	return value
}

func IsUnexpectedResponse(err error) bool {
	rich, ok := AsError(err)
	return ok && rich.TextCode == ErrorCodeUnexpectedResponse
}

func IsInvalidRequest(err error) bool {
	rich, ok := AsError(err)
	return ok && rich.TextCode == ErrorCodeInvalidRequest
}

func metadataValue(err error, key string) (any, bool) {
	rich, ok := AsError(err)
	if !ok || rich.Metadata == nil {
		return nil, false
	}
	value, ok := rich.Metadata[key]
	return value, ok
}

type errorEnvelope struct {
	Message string
	Error   any
	Code    any
	Errors  any
	Detail  string
}

func (e errorEnvelope) humanMessage() string {
	if text := strings.TrimSpace(e.Message); text != "" {
		return text
	}
	if text, ok := e.Error.(string); ok && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(e.Detail)
}

// parseErrorEnvelope accepts any JSON object whose known fields carry the
// expected types. Unknown fields are ignored.
func parseErrorEnvelope(body any) (errorEnvelope, bool) {
	object, ok := body.(map[string]any)
	if !ok {
		return errorEnvelope{}, false
	}
	envelope := errorEnvelope{Errors: object["errors"]}

	if value, present := object["status"]; present {
		switch value.(type) {
		case string, float64:
		default:
			return errorEnvelope{}, false
		}
	}
	if value, present := object["message"]; present {
		text, isText := value.(string)
		if !isText {
			return errorEnvelope{}, false
		}
		envelope.Message = text
	}
	if value, present := object["error"]; present {
		switch value.(type) {
		case string, bool:
			envelope.Error = value
		default:
			return errorEnvelope{}, false
		}
	}
	if value, present := object["code"]; present {
		switch value.(type) {
		case string, float64:
			envelope.Code = value
		default:
			return errorEnvelope{}, false
		}
	}
	if value, present := object["detail"]; present {
		text, isText := value.(string)
		if !isText {
			return errorEnvelope{}, false
		}
		envelope.Detail = text
	}
	return envelope, true
}

func errorTextCode(code any, fallback string) string {
	switch typed := code.(type) {
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			return trimmed
		}
	case float64:
		if typed == math.Trunc(typed) && !math.IsInf(typed, 0) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	}
	return fallback
}

func errorMetadata(statusCode int, errorCode any, requestID string, rawBody string, details any) map[string]any {
	metadata := map[string]any{}
	if statusCode > 0 {
		metadata[MetaStatusCode] = statusCode
	}
	if errorCode != nil {
		metadata[MetaErrorCode] = errorCode
	}
	if strings.TrimSpace(requestID) != "" {
		metadata[MetaRequestID] = strings.TrimSpace(requestID)
	}
	if rawBody != "" {
		metadata[MetaRawBody] = rawBody
	}
	if details != nil {
		metadata[MetaDetails] = details
	}
	return metadata
}

func detailsFromFields(fields []goerrors.FieldError) any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]map[string]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, map[string]string{"field": field.Field, "message": field.Message})
	}
	return out
}

func apiErrorCategory(statusCode int) goerrors.Category {
	switch statusCode {
	case http.StatusBadRequest:
		return goerrors.CategoryBadInput
	case http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	default:
		return goerrors.CategoryExternal
	}
}
