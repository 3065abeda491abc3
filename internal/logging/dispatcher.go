package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// DispatcherLogger writes operator command routing messages through zerolog, tagged with
// the dispatcher component.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger for the dispatcher.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	withPairs(l.logger.Debug(), keysAndValues).Msg(msg)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	withPairs(l.logger.Info(), keysAndValues).Msg(msg)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	withPairs(l.logger.Error(), keysAndValues).Msg(msg)
}

// withPairs adds alternating key/value pairs to e in order, keeping the zerolog type of
// each value. An "error" value goes to the standard error field. A key without a value
// or a non-string key is skipped.
func withPairs(e *zerolog.Event, keysAndValues []any) *zerolog.Event {
	if e == nil {
		return nil
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			if key == "error" {
				e = e.Err(v)
			} else {
				e = e.AnErr(key, v)
			}
		case string:
			e = e.Str(key, v)
		case []string:
			e = e.Strs(key, v)
		case int:
			e = e.Int(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
