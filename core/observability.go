package core

import (
	"context"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ResolveLogger applies provider > logger > nop precedence under name.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) Logger {
	_, resolved := glog.Resolve(name, provider, logger)
	return glog.Ensure(resolved)
}

// Log writes message with fields attached both as a fields logger scope
// (when supported) and as sorted key/value args. Credential-like fields are
// redacted first.
func Log(ctx context.Context, logger Logger, level string, message string, fields map[string]any) {
	if logger == nil {
		return
	}
	fields = RedactSensitiveMap(fields)
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		logger.Debug(message, args...)
	case LevelWarn:
		logger.Warn(message, args...)
	case LevelError:
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
