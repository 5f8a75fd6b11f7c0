// Package gologger bridges the glog contracts used across go-talo to zerolog
// for process output and to go-job for queue workers.
package gologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	_ glog.Logger         = (*ZeroLogger)(nil)
	_ glog.FieldsLogger   = (*ZeroLogger)(nil)
	_ glog.LoggerProvider = (*ZeroProvider)(nil)
)

// ZeroLogger writes glog calls as zerolog events. Args are read as
// key/value pairs; an odd trailing value is logged under "extra".
type ZeroLogger struct {
	zlog zerolog.Logger
}

func NewZeroLogger(zlog zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zlog: zlog}
}

// New builds a logger writing to w with the given level and format.
// Unknown levels fall back to info.
func New(w io.Writer, level string, format string) *ZeroLogger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(format), FormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return NewZeroLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger())
}

func (l *ZeroLogger) Trace(msg string, args ...any) { l.emit(l.zlog.Trace(), msg, args) }
func (l *ZeroLogger) Debug(msg string, args ...any) { l.emit(l.zlog.Debug(), msg, args) }
func (l *ZeroLogger) Info(msg string, args ...any)  { l.emit(l.zlog.Info(), msg, args) }
func (l *ZeroLogger) Warn(msg string, args ...any)  { l.emit(l.zlog.Warn(), msg, args) }
func (l *ZeroLogger) Error(msg string, args ...any) { l.emit(l.zlog.Error(), msg, args) }

// Fatal logs at error level. Process exit stays with the caller.
func (l *ZeroLogger) Fatal(msg string, args ...any) { l.emit(l.zlog.Error(), msg, args) }

func (l *ZeroLogger) WithContext(ctx context.Context) glog.Logger {
	if ctx == nil {
		return l
	}
	return &ZeroLogger{zlog: l.zlog.With().Ctx(ctx).Logger()}
}

func (l *ZeroLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	return &ZeroLogger{zlog: l.zlog.With().Fields(fields).Logger()}
}

func (l *ZeroLogger) emit(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			event = event.Interface("extra", args[i])
			break
		}
		event = event.Interface(fmt.Sprint(args[i]), args[i+1])
	}
	event.Msg(msg)
}

// ZeroProvider hands out named children of a single ZeroLogger.
type ZeroProvider struct {
	root *ZeroLogger
}

func NewZeroProvider(root *ZeroLogger) *ZeroProvider {
	return &ZeroProvider{root: root}
}

func (p *ZeroProvider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return p.root
	}
	return &ZeroLogger{zlog: p.root.zlog.With().Str("logger", name).Logger()}
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the glog pair for a webhook worker and returns the
// equivalent go-job adapters.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
