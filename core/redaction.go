package core

import "strings"

const RedactedValue = "[REDACTED]"

var sensitiveKeyParts = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"credential",
	"signature",
}

// RedactSensitiveMap returns a copy of fields with credential-like values
// replaced, walking nested maps and slices.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return redactMap(fields)
}

func redactMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if isSensitiveKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactValue(value)
	}
	return target
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isReferenceKey(key) {
		return false
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// isReferenceKey lists identifiers that must stay readable in logs even
// when they resemble a sensitive key.
func isReferenceKey(key string) bool {
	switch key {
	case "request_id",
		"payment_id",
		"external_id",
		"customer_id",
		"transaction_id",
		"delivery_key",
		"idempotency_key":
		return true
	default:
		return false
	}
}
