// Package logging provides named, leveled loggers for the application.
// Every package obtains its logger once via GetLogger and the levels of
// all loggers are configured centrally with InitLoggers.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Logger Registry
// --------------------------------------------------------------------------

var (
	mu      sync.Mutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggers = map[string]*zap.SugaredLogger{}
)

// GetLogger returns the named logger, creating it on first use.
// All loggers share one atomic level so InitLoggers takes effect
// regardless of creation order.
func GetLogger(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}

	encoderConf := zap.NewProductionEncoderConfig()
	encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConf.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConf),
		zapcore.Lock(os.Stdout),
		level,
	)

	l := zap.New(core).Named(name).Sugar()
	loggers[name] = l
	return l
}

// --------------------------------------------------------------------------
// Logger Initialization
// --------------------------------------------------------------------------

// InitLoggers sets the level for all named loggers (existing and future ones)
func InitLoggers(logLevel string) error {
	lvl, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// parseLogLevel converts a string level to a zap level
func parseLogLevel(logLevel string) (zapcore.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", logLevel)
	}
}
