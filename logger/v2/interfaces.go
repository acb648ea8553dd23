package v2

// Logger is the structured logging interface used across the module.
// It hides the logrus backend so no package leaks logrus types.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)

	// With returns a child logger carrying preset fields.
	With(fields ...Field) Logger
}

// Field is a single structured log field.
type Field struct {
	Key   string
	Value interface{}
}
