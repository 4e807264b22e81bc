package fieldmark

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured log context.
type Fields map[string]interface{}

// Logger wraps a zap logger behind the engine's logging surface.
type Logger struct {
	zl    *zap.SugaredLogger
	debug bool
}

var (
	globalLogger     *Logger
	globalLoggerMu   sync.RWMutex
	globalLoggerOnce sync.Once
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		globalLogger = NewLogger(config.Debug)
	})
}

func init() {
	initGlobalLogger()
}

// NewLogger builds a stderr-bound logger. Debug mode uses a development
// encoder at debug level; otherwise a production encoder at warn level so
// normal renders stay quiet.
func NewLogger(debug bool) *Logger {
	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	level := zapcore.WarnLevel

	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.DebugLevel
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return &Logger{
		zl:    zap.New(core).Sugar(),
		debug: debug,
	}
}

// IsDebugMode reports whether debug tracing is enabled.
func (l *Logger) IsDebugMode() bool {
	return l.debug
}

// WithField returns a logger with one extra field of context.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		zl:    l.zl.With(key, value),
		debug: l.debug,
	}
}

// WithFields returns a logger with extra fields of context.
func (l *Logger) WithFields(fields Fields) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		zl:    l.zl.With(args...),
		debug: l.debug,
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Errorf(format, args...)
}

// DebugExpression traces an expression and its evaluated result.
func (l *Logger) DebugExpression(expr string, result interface{}) {
	if !l.debug {
		return
	}
	l.zl.Debugw("expression evaluated", "expr", expr, "result", result)
}

// Zap exposes the underlying sugared logger for adapters.
func (l *Logger) Zap() *zap.SugaredLogger {
	return l.zl
}

// SetLogger replaces the global logger.
func SetLogger(logger *Logger) {
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// WithField returns the global logger with one extra field of context.
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields returns the global logger with extra fields of context.
func WithFields(fields Fields) *Logger {
	return GetLogger().WithFields(fields)
}

// UpdateLoggerFromConfig rebuilds the global logger from the current
// global configuration.
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	SetLogger(NewLogger(config.Debug))
}
