// Package testutil provides common test utilities for MolSig-Alphabet.
package testutil

import (
	"sync"

	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
)

// RecordingLogger implements logging.Logger and records every entry so tests
// can verify logging behavior.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is a single log entry captured by RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (r *RecordingLogger) log(level, msg string, fields []logging.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...logging.Field) { r.log("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...logging.Field)  { r.log("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...logging.Field)  { r.log("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...logging.Field) { r.log("error", msg, fields) }

// Fatal records the entry without exiting, so tests can assert on it.
func (r *RecordingLogger) Fatal(msg string, fields ...logging.Field) { r.log("fatal", msg, fields) }

func (r *RecordingLogger) With(fields ...logging.Field) logging.Logger { return r }
func (r *RecordingLogger) Named(name string) logging.Logger            { return r }
func (r *RecordingLogger) Sync() error                                 { return nil }

// Entries returns a copy of all recorded entries.
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// HasEntry reports whether an entry with the given level and message was
// recorded.
func (r *RecordingLogger) HasEntry(level, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// Clear removes all recorded entries.
func (r *RecordingLogger) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}
