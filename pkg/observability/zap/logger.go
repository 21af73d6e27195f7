package zap

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

type Option func(*loggerOptions)

type loggerOptions struct {
	zapLogger *ubzap.Logger
	notifier  observability.ErrorNotifier
}

// WithZapLogger injects a pre-built zap logger instead of the default stdout JSON core.
func WithZapLogger(logger *ubzap.Logger) Option {
	return func(opts *loggerOptions) {
		opts.zapLogger = logger
	}
}

// WithErrorNotifier forwards error-level entries to the notifier (best effort).
func WithErrorNotifier(notifier observability.ErrorNotifier) Option {
	return func(opts *loggerOptions) {
		opts.notifier = notifier
	}
}

// Logger is the zap-backed StructuredLogger used by the Lambda handlers and CLI.
type Logger struct {
	log      *ubzap.Logger
	notifier observability.ErrorNotifier

	fields    map[string]any
	requestID string
	jobID     string
}

var _ observability.StructuredLogger = (*Logger)(nil)

func NewZapLogger(config observability.LoggerConfig, options ...Option) (*Logger, error) {
	opts := &loggerOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(opts)
	}

	base := opts.zapLogger
	if base == nil {
		level, err := parseZapLevel(config.Level)
		if err != nil {
			return nil, err
		}

		enc := zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			MessageKey:     "message",
			CallerKey:      "",
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
		if config.EnableCaller {
			enc.CallerKey = "caller"
			enc.EncodeCaller = zapcore.ShortCallerEncoder
		}

		var encoder zapcore.Encoder
		switch strings.ToLower(strings.TrimSpace(config.Format)) {
		case "console":
			encoder = zapcore.NewConsoleEncoder(enc)
		case "json", "":
			encoder = zapcore.NewJSONEncoder(enc)
		default:
			return nil, errors.New("observability/zap: unsupported log format")
		}

		base = ubzap.New(zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
		if config.EnableCaller {
			base = base.WithOptions(ubzap.AddCaller())
		}
	}

	return &Logger{log: base, notifier: opts.notifier}, nil
}

func parseZapLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case levelDebug:
		return zapcore.DebugLevel, nil
	case levelInfo, "":
		return zapcore.InfoLevel, nil
	case levelWarn, "warning":
		return zapcore.WarnLevel, nil
	case levelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.New("observability/zap: unsupported log level")
	}
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.write(levelDebug, message, fields)
}

func (l *Logger) Info(message string, fields ...map[string]any) {
	l.write(levelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.write(levelWarn, message, fields)
}

func (l *Logger) Error(message string, fields ...map[string]any) {
	entry := l.write(levelError, message, fields)
	if l.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Notification failures must never fail the caller.
		_ = l.notifier.Notify(ctx, entry)
	}
}

func (l *Logger) write(level, message string, fields []map[string]any) observability.LogEntry {
	merged := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	zapFields := make([]ubzap.Field, 0, len(merged)+2)
	for k, v := range merged {
		zapFields = append(zapFields, ubzap.Any(k, v))
	}
	if l.requestID != "" {
		zapFields = append(zapFields, ubzap.String("request_id", l.requestID))
	}
	if l.jobID != "" {
		zapFields = append(zapFields, ubzap.String("job_id", l.jobID))
	}

	switch level {
	case levelDebug:
		l.log.Debug(message, zapFields...)
	case levelInfo:
		l.log.Info(message, zapFields...)
	case levelWarn:
		l.log.Warn(message, zapFields...)
	case levelError:
		l.log.Error(message, zapFields...)
	}

	if len(merged) == 0 {
		merged = nil
	}
	return observability.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Fields:    merged,
		RequestID: l.requestID,
		JobID:     l.jobID,
	}
}

func (l *Logger) WithField(key string, value any) observability.StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	next := l.clone()
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (l *Logger) WithRequestID(requestID string) observability.StructuredLogger {
	next := l.clone()
	next.requestID = requestID
	return next
}

func (l *Logger) WithJobID(jobID string) observability.StructuredLogger {
	next := l.clone()
	next.jobID = jobID
	return next
}

func (l *Logger) Flush(_ context.Context) error {
	return l.log.Sync()
}

func (l *Logger) Close() error {
	return l.log.Sync()
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		log:       l.log,
		notifier:  l.notifier,
		fields:    fields,
		requestID: l.requestID,
		jobID:     l.jobID,
	}
}
