package logger

import (
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/pkg/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Logger is the structured logging surface shared by the runtime packages and the API client.
type Logger = api.Logger

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}

// ZapLogger logs each object as a single structured field.
type ZapLogger struct {
	l *zap.Logger
}

// Init initializes the zap logger using settings from config. Output goes to
// stderr so command results on stdout stay machine readable.
func Init(cfg *config.Config) (*ZapLogger, error) {
	level := "info"
	if cfg != nil {
		level = cfg.LogLevel
	}
	return New(os.Stderr, level), nil
}

// New builds a JSON zap logger writing to w at the named level.
func New(w io.Writer, level string) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		parseLevel(level),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	S = l.Sugar()
	return &ZapLogger{l: l}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

func (z *ZapLogger) InfoObj(msg, key string, obj interface{}) {
	z.l.Info(msg, zap.Any(key, obj))
}

func (z *ZapLogger) DebugObj(msg, key string, obj interface{}) {
	z.l.Debug(msg, zap.Any(key, obj))
}

func (z *ZapLogger) WarnObj(msg, key string, obj interface{}) {
	z.l.Warn(msg, zap.Any(key, obj))
}

func (z *ZapLogger) ErrorObj(msg, key string, obj interface{}) {
	z.l.Error(msg, zap.Any(key, obj))
}
