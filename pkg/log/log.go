// Package log provides structured logging for the binngo library on top of
// zerolog. Library packages obtain a named logger with GetLoggerWithName and
// attach structured key/value context; applications control the global level
// and output with SetupLogger.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Standard structured field keys.
const (
	ModelNameKey = "model"
	ComponentKey = "component"
	OperationKey = "operation"
	PhaseKey     = "phase"
	SamplesKey   = "n_samples"
	ScenariosKey = "n_scenarios"
	PrebinsKey   = "n_prebins"
	SplitsKey    = "n_splits"
	StatusKey    = "status"
	DurationKey  = "duration"
)

// Standard field values.
const (
	OperationFit       = "fit"
	OperationTransform = "transform"

	PhasePreprocessing  = "preprocessing"
	PhasePrebinning     = "prebinning"
	PhaseOptimization   = "optimization"
	PhasePostprocessing = "postprocessing"
)

var (
	mu     sync.RWMutex
	global = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
)

// SetupLogger configures the global logger level. Accepted levels are
// "debug", "info", "warn", "error" and "disabled"; unknown values fall back
// to "warn".
func SetupLogger(level string) {
	lvl := zerolog.WarnLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	case "disabled":
		lvl = zerolog.Disabled
	}
	mu.Lock()
	global = global.Level(lvl)
	mu.Unlock()
}

// GetLogger returns the global zerolog logger for direct use.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// LogError logs err at error level with the given message.
func LogError(err error, msg string) {
	GetLogger().Error().Err(err).Msg(msg)
}

// Logger is the structured logger handed to library components. Key/value
// pairs alternate in keysAndValues; a trailing odd key is ignored.
type Logger interface {
	With(keysAndValues ...interface{}) Logger
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// GetLoggerWithName returns a named component logger backed by the global
// zerolog logger.
func GetLoggerWithName(name string) Logger {
	return &zerologLogger{ctx: map[string]interface{}{ComponentKey: name}}
}

type zerologLogger struct {
	ctx map[string]interface{}
}

func (l *zerologLogger) With(keysAndValues ...interface{}) Logger {
	ctx := make(map[string]interface{}, len(l.ctx)+len(keysAndValues)/2)
	for k, v := range l.ctx {
		ctx[k] = v
	}
	addFields(ctx, keysAndValues)
	return &zerologLogger{ctx: ctx}
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.emit(GetLogger().Debug(), msg, keysAndValues)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.emit(GetLogger().Info(), msg, keysAndValues)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.emit(GetLogger().Warn(), msg, keysAndValues)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.emit(GetLogger().Error(), msg, keysAndValues)
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for k, v := range l.ctx {
		ev = ev.Interface(k, v)
	}
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	addFields(fields, keysAndValues)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func addFields(dst map[string]interface{}, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		dst[key] = keysAndValues[i+1]
	}
}
