// Package log provides centralized logging for Raceway using zap.
package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.Mutex
	baseLogger *zap.Logger
	sugar      *zap.SugaredLogger
)

// Init initializes the package-level logger. Debug enables development
// encoding and debug-level output. Safe to call more than once; the
// last call wins.
func Init(debug bool) error {
	var logger *zap.Logger
	var err error

	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("log: init: %w", err)
	}

	mu.Lock()
	baseLogger = logger
	sugar = logger.Sugar()
	mu.Unlock()
	return nil
}

// L returns the sugared logger, initializing a production logger on
// first use if Init was never called.
func L() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if sugar == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			// Last resort; NewProduction only fails on bad sink paths.
			fmt.Fprintf(os.Stderr, "log: fallback init failed: %v\n", err)
			logger = zap.NewNop()
		}
		baseLogger = logger
		sugar = logger.Sugar()
	}
	return sugar
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }

// Infof logs a formatted info message.
func Infof(format string, args ...interface{}) { L().Infof(format, args...) }

// Warnf logs a formatted warning message.
func Warnf(format string, args ...interface{}) { L().Warnf(format, args...) }

// Errorf logs a formatted error message.
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }
