package v2

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds logger construction options.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format selects the output format (text, json).
	Format string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// loggerImpl implements Logger on top of logrus.
type loggerImpl struct {
	logrus *logrus.Logger
	fields []Field
}

// New creates a logger with the given configuration.
func New(cfg Config) (Logger, error) {
	backend := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	backend.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		backend.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text", "":
		backend.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	return &loggerImpl{logrus: backend}, nil
}

// NewDefault creates a logger with default settings, falling back to a
// no-op logger if construction fails.
func NewDefault() Logger {
	logger, err := New(DefaultConfig())
	if err != nil {
		return NewNoop()
	}
	return logger
}

// NewNoop creates a logger that discards everything. Useful in tests.
func NewNoop() Logger {
	return &noopLogger{}
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...Field)            {}
func (n *noopLogger) Info(msg string, fields ...Field)             {}
func (n *noopLogger) Warn(msg string, fields ...Field)             {}
func (n *noopLogger) Error(msg string, err error, fields ...Field) {}
func (n *noopLogger) With(fields ...Field) Logger                  { return n }

func (l *loggerImpl) entry(fields []Field) *logrus.Entry {
	all := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		all[f.Key] = f.Value
	}
	for _, f := range fields {
		all[f.Key] = f.Value
	}
	return l.logrus.WithFields(all)
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.entry(fields).Debug(msg)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.entry(fields).Info(msg)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.entry(fields).Warn(msg)
}

func (l *loggerImpl) Error(msg string, err error, fields ...Field) {
	entry := l.entry(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	return &loggerImpl{
		logrus: l.logrus,
		fields: append(append([]Field{}, l.fields...), fields...),
	}
}
