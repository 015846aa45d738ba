// Package logger owns the process-wide zap logger. Handlers and
// middleware log through the package-level helpers so call sites stay
// one line.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log defaults to a no-op logger so anything that logs before
// Initialize runs (including tests) is safe.
var Log = zap.NewNop()

// Initialize replaces Log with a real logger writing human-readable
// output to stdout and rotated JSON to logFile. Empty arguments fall
// back to "info" and "server.log".
func Initialize(logLevel string, logFile string) error {
	if logFile == "" {
		logFile = "server.log"
	}
	if logLevel == "" {
		logLevel = "info"
	}
	level := levelFromString(logLevel)

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), rotated, level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Log.Info("Logger initialized",
		zap.String("level", logLevel),
		zap.String("file", logFile),
	)
	return nil
}

// Close flushes buffered entries. Call on shutdown.
func Close() error {
	return Log.Sync()
}

func levelFromString(s string) zapcore.Level {
	switch strings.ToLower(s) {
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

// WarnWithFields logs a warning, attaching err when non-nil.
func WarnWithFields(msg string, err error) {
	if err != nil {
		Log.Warn(msg, zap.Error(err))
		return
	}
	Log.Warn(msg)
}

// ErrorWithFields logs an error, attaching err when non-nil.
func ErrorWithFields(msg string, err error) {
	if err != nil {
		Log.Error(msg, zap.Error(err))
		return
	}
	Log.Error(msg)
}

// InfoWithFields logs at info level with structured fields.
func InfoWithFields(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// WithRequestID tags an entry with the request ID assigned by the
// request-ID middleware.
func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

// WithIP tags an entry with the client address.
func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}
