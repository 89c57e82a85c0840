package logger

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// LogMessage is one captured log call
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// recorder is shared by a TestLogger and every child derived from it
type recorder struct {
	mu  sync.Mutex
	log []LogMessage
}

func (r *recorder) add(m LogMessage) {
	r.mu.Lock()
	r.log = append(r.log, m)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []LogMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.log)
}

// TestLogger records log calls in memory for assertions
type TestLogger struct {
	rec    *recorder
	fields map[string]interface{}
	err    error
}

// NewTestLogger creates an empty recording logger
func NewTestLogger() *TestLogger {
	return &TestLogger{rec: &recorder{}}
}

func (l *TestLogger) record(level, msg string, extra map[string]interface{}) {
	fields := make(map[string]interface{}, len(l.fields)+len(extra))
	for _, src := range []map[string]interface{}{l.fields, extra} {
		for k, v := range src {
			fields[k] = v
		}
	}
	l.rec.add(LogMessage{Level: level, Message: msg, Fields: fields, Error: l.err})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	l.record("DEBUG", msg, f)
}

func (l *TestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	l.record("INFO", msg, f)
}

func (l *TestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	l.record("WARN", msg, f)
}

func (l *TestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	l.record("ERROR", msg, f)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(f map[string]interface{}) Logger {
	child := &TestLogger{rec: l.rec, err: l.err, fields: make(map[string]interface{}, len(l.fields)+len(f))}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range f {
		child.fields[k] = v
	}
	return child
}

func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{rec: l.rec, fields: l.fields, err: err}
}

func (l *TestLogger) WithContext(context.Context) Logger { return l }

// GetMessages returns every captured message in call order
func (l *TestLogger) GetMessages() []LogMessage {
	return l.rec.snapshot()
}

// GetMessagesByLevel returns the captured messages of one level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	msgs := l.rec.snapshot()
	return slices.DeleteFunc(msgs, func(m LogMessage) bool { return m.Level != level })
}

// HasMessage reports whether any message contains text
func (l *TestLogger) HasMessage(text string) bool {
	return slices.ContainsFunc(l.rec.snapshot(), func(m LogMessage) bool {
		return strings.Contains(m.Message, text)
	})
}

// HasError reports whether anything was logged at ERROR
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops the captured messages
func (l *TestLogger) Clear() {
	l.rec.mu.Lock()
	l.rec.log = nil
	l.rec.mu.Unlock()
}
