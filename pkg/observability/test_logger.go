package observability

import (
	"context"
	"sync"
	"time"
)

// TestLogger records entries in memory so tests can assert on log output.
type TestLogger struct {
	mu      sync.Mutex
	entries []LogEntry

	parent    *TestLogger
	fields    map[string]any
	requestID string
	jobID     string
}

var _ StructuredLogger = (*TestLogger)(nil)

func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) log(level, message string, fields ...map[string]any) {
	merged := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		merged = nil
	}

	root := l.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.entries = append(root.entries, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Fields:    merged,
		RequestID: l.requestID,
		JobID:     l.jobID,
	})
}

func (l *TestLogger) Debug(message string, fields ...map[string]any) { l.log("debug", message, fields...) }
func (l *TestLogger) Info(message string, fields ...map[string]any)  { l.log("info", message, fields...) }
func (l *TestLogger) Warn(message string, fields ...map[string]any)  { l.log("warn", message, fields...) }
func (l *TestLogger) Error(message string, fields ...map[string]any) { l.log("error", message, fields...) }

func (l *TestLogger) WithField(key string, value any) StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *TestLogger) WithFields(fields map[string]any) StructuredLogger {
	next := l.clone()
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (l *TestLogger) WithRequestID(requestID string) StructuredLogger {
	next := l.clone()
	next.requestID = requestID
	return next
}

func (l *TestLogger) WithJobID(jobID string) StructuredLogger {
	next := l.clone()
	next.jobID = jobID
	return next
}

func (l *TestLogger) Flush(_ context.Context) error { return nil }
func (l *TestLogger) Close() error                  { return nil }

// Entries returns a copy of everything logged so far, across derived loggers.
func (l *TestLogger) Entries() []LogEntry {
	root := l.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	out := make([]LogEntry, len(root.entries))
	copy(out, root.entries)
	return out
}

// HasMessage reports whether any recorded entry carries the given message.
func (l *TestLogger) HasMessage(message string) bool {
	for _, e := range l.Entries() {
		if e.Message == message {
			return true
		}
	}
	return false
}

func (l *TestLogger) clone() *TestLogger {
	fields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &TestLogger{
		parent:    l.root(),
		fields:    fields,
		requestID: l.requestID,
		jobID:     l.jobID,
	}
}

func (l *TestLogger) root() *TestLogger {
	if l.parent != nil {
		return l.parent
	}
	return l
}
