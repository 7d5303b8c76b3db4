package api

// Logger is the structured logging surface the client reports request
// diagnostics through. internal/logger.Logger aliases it.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discardLogger struct{}

func (discardLogger) InfoObj(string, string, interface{})  {}
func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) WarnObj(string, string, interface{})  {}
func (discardLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
