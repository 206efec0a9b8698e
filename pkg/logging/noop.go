package logging

// NoopLogger discards all log output. Used in tests.
type NoopLogger struct{}

var _ Logger = (*NoopLogger)(nil)

func NewNoopLogger() Logger { return &NoopLogger{} }

func (n *NoopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *NoopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoopLogger) Fatal(msg string, keysAndValues ...interface{}) {}

func (n *NoopLogger) Debugf(template string, args ...interface{}) {}
func (n *NoopLogger) Infof(template string, args ...interface{})  {}
func (n *NoopLogger) Warnf(template string, args ...interface{})  {}
func (n *NoopLogger) Errorf(template string, args ...interface{}) {}
func (n *NoopLogger) Fatalf(template string, args ...interface{}) {}

func (n *NoopLogger) With(keysAndValues ...interface{}) Logger { return n }
