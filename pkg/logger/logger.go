package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop()
)

// Init replaces the process logger. Development gets a console encoder, every
// other environment gets production JSON.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "development" {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	set(l)
	return nil
}

// Use installs an already built logger, mainly for tests that want an observer core.
func Use(l *zap.Logger) {
	set(l.WithOptions(zap.AddCallerSkip(1)))
}

func set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Sync() {
	_ = current().Sync()
}

func Debug(msg string, args ...interface{}) {
	current().Debug(msg, fields(args)...)
}

func Info(msg string, args ...interface{}) {
	current().Info(msg, fields(args)...)
}

func Warn(msg string, args ...interface{}) {
	current().Warn(msg, fields(args)...)
}

func Error(msg string, args ...interface{}) {
	current().Error(msg, fields(args)...)
}

func Fatal(msg string, args ...interface{}) {
	current().Fatal(msg, fields(args)...)
}

// fields turns the loose key/value style used across the service into zap
// fields. A bare error becomes the "error" field; a dangling value is kept
// under "extra".
func fields(args []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case error:
			out = append(out, zap.Error(v))
		case zap.Field:
			out = append(out, v)
		case string:
			if i+1 < len(args) {
				out = append(out, zap.Any(v, args[i+1]))
				i++
				continue
			}
			out = append(out, zap.String("extra", v))
		default:
			out = append(out, zap.Any("extra", v))
		}
	}
	return out
}
