package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

func init() {
	l, err := build(zapcore.InfoLevel)
	if err != nil {
		panic(err)
	}
	L = l
}

// Init rebuilds the package logger with the given level ("debug", "info", "warn", "error").
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	l, err := build(lvl)
	if err != nil {
		return err
	}
	L = l
	return nil
}

func build(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(level)
	return config.Build()
}

// WithComponent returns a logger tagged with a component field for handlers, services and workers.
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}
