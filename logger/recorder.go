package logger

import "go.uber.org/zap"

// ProgressRecorder forwards stage progress notices to a zap logger at info level.
type ProgressRecorder struct {
	log *zap.SugaredLogger
}

// NewProgressRecorder wraps l. A nil logger falls back to the global Logger.
func NewProgressRecorder(l *zap.SugaredLogger) *ProgressRecorder {
	if l == nil {
		l = Logger
	}
	return &ProgressRecorder{log: l}
}

// Record logs a progress notice with structured fields.
func (r *ProgressRecorder) Record(msg string, keysAndValues ...interface{}) {
	r.log.Infow(msg, keysAndValues...)
}
