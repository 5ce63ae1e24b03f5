package cli

import (
	"context"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	commandKey   = "command"
	timeStampKey = "timestamp"
	messageKey   = "message"
)

// newLogger builds a JSON zap logger writing to w, wrapped as a logr.Logger.
// debug lowers the minimum level from info to debug.
func newLogger(w io.Writer, debug bool) (logr.Logger, *zap.Logger) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = timeStampKey
	encoderCfg.MessageKey = messageKey

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	zl := zap.New(core, zap.AddStacktrace(zap.ErrorLevel))
	return zapr.NewLogger(zl), zl
}

// withLogger attaches log to ctx.
func withLogger(ctx context.Context, log logr.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// loggerFrom returns the logger attached by withLogger, or a discard logger.
func loggerFrom(ctx context.Context) logr.Logger {
	if ctx == nil {
		return logr.Discard()
	}
	if log, ok := ctx.Value(loggerContextKey{}).(logr.Logger); ok {
		return log
	}
	return logr.Discard()
}
