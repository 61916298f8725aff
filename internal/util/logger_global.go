package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerMu     sync.RWMutex
)

// InitLogger installs the global logger. Calling it again replaces the
// previous logger and closes its outputs.
func InitLogger(opts LoggerOptions) error {
	logger, err := NewLogger(opts)
	if err != nil {
		return err
	}

	loggerMu.Lock()
	previous := globalLogger
	globalLogger = logger
	loggerMu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// SetLogger installs an already constructed logger, mostly for tests.
func SetLogger(logger LoggerInterface) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	globalLogger = logger
}

// GetLogger returns the global logger, or nil before InitLogger.
func GetLogger() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// CloseLogger flushes and closes the global logger.
func CloseLogger() error {
	loggerMu.Lock()
	logger := globalLogger
	globalLogger = nil
	loggerMu.Unlock()

	if logger == nil {
		return nil
	}
	return logger.Close()
}

func LogInfo(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Info(msg, fields...)
	}
}

func LogInfof(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Infof(format, args...)
	}
}

func LogDebug(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Debug(msg, fields...)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Debugf(format, args...)
	}
}

func LogWarn(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Warn(msg, fields...)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Warnf(format, args...)
	}
}

func LogError(msg string, fields ...Field) {
	if logger := GetLogger(); logger != nil {
		logger.Error(msg, fields...)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if logger := GetLogger(); logger != nil {
		logger.Errorf(format, args...)
	}
}
