// Package logging provides structured, category-tagged logging backed by zap.
package logging

import (
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a config string onto a Level, defaulting to INFO.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes JSON entries carrying a category and arbitrary fields.
// A nil *Logger discards everything.
type Logger struct {
	site string
	base *zap.Logger
}

// New creates a Logger for the given site writing JSON lines to writers
// (stdout when none are supplied).
func New(site string, minLevel Level, writers ...io.Writer) *Logger {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(syncers...),
		minLevel.zapLevel(),
	)
	base := zap.New(core)
	if site != "" {
		base = base.With(zap.String("site", site))
	}
	return &Logger{site: site, base: base}
}

// Nop returns a Logger that drops every entry.
func Nop() *Logger {
	return &Logger{base: zap.NewNop()}
}

// Log writes an entry at the given level.
func (l *Logger) Log(level Level, category, message string, fields map[string]any) {
	l.log(level, category, "", message, nil, fields)
}

// Debug logs a debug message.
func (l *Logger) Debug(category, message string, fields map[string]any) {
	l.Log(DEBUG, category, message, fields)
}

// Info logs an info message.
func (l *Logger) Info(category, message string, fields map[string]any) {
	l.Log(INFO, category, message, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(category, message string, fields map[string]any) {
	l.Log(WARN, category, message, fields)
}

// Error logs an error message with the error string attached.
func (l *Logger) Error(category, message string, err error, fields map[string]any) {
	l.log(ERROR, category, "", message, err, fields)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Sync()
}

func (l *Logger) log(level Level, category, requestID, message string, err error, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	ce := l.base.Check(level.zapLevel(), message)
	if ce == nil {
		return
	}
	zfields := make([]zap.Field, 0, len(fields)+3)
	if category != "" {
		zfields = append(zfields, zap.String("category", category))
	}
	if requestID != "" {
		zfields = append(zfields, zap.String("request_id", requestID))
	}
	if err != nil {
		zfields = append(zfields, zap.String("error", err.Error()))
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}
	ce.Write(zfields...)
}

// LogContext carries a request ID, category and fields across several entries.
type LogContext struct {
	logger    *Logger
	requestID string
	category  string
	fields    map[string]any
}

// WithRequestID creates a logging context with a request ID.
func (l *Logger) WithRequestID(requestID string) *LogContext {
	return &LogContext{
		logger:    l,
		requestID: requestID,
		fields:    make(map[string]any),
	}
}

// WithCategory sets the category for this context.
func (c *LogContext) WithCategory(category string) *LogContext {
	c.category = category
	return c
}

// WithField adds a field to this context.
func (c *LogContext) WithField(key string, value any) *LogContext {
	if c.fields == nil {
		c.fields = make(map[string]any)
	}
	c.fields[key] = value
	return c
}

// Info logs an info message with the context's request ID and fields.
func (c *LogContext) Info(message string) {
	c.logger.log(INFO, c.category, c.requestID, message, nil, c.fields)
}

// Warn logs a warning message with the context's request ID and fields.
func (c *LogContext) Warn(message string) {
	c.logger.log(WARN, c.category, c.requestID, message, nil, c.fields)
}

// Error logs an error message with the context's request ID and fields.
func (c *LogContext) Error(message string, err error) {
	c.logger.log(ERROR, c.category, c.requestID, message, err, c.fields)
}
