package logging

import "sync"

var (
	initOnce      sync.Once
	serviceLogger Logger
)

// InitServiceLogger builds the process-wide logger. The orchestrator runs one
// service per process, so a single instance serves every package. Calls after
// the first are no-ops.
func InitServiceLogger(config LoggerConfig) error {
	var err error
	initOnce.Do(func() {
		serviceLogger, err = NewZapLogger(config)
	})
	return err
}

// GetServiceLogger returns the logger set up by InitServiceLogger. Panics if
// called before initialization; main wires logging before anything else.
func GetServiceLogger() Logger {
	if serviceLogger == nil {
		panic("logger not initialized")
	}
	return serviceLogger
}

// Shutdown flushes buffered log entries. Sync errors are ignored: syncing
// stdout fails on most platforms and there is nothing to do about it at exit.
func Shutdown() {
	if zl, ok := serviceLogger.(*ZapLogger); ok {
		_ = zl.logger.Sync()
	}
}
