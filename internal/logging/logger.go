package logging

import (
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "FUELLINK_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks FUELLINK_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// InitializeFromEnv initializes the logger from FUELLINK_LOG_LEVEL.
func InitializeFromEnv() error {
	return Initialize("")
}

// GetLogger returns the global logger instance, defaulting to silent.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogFrameDrop logs a frame-layer drop (bad CRC, bad length, truncated
// input). These are silent-by-design at the protocol level (§7); this is
// purely an observability aid, never a parser-visible error.
func LogFrameDrop(node, reason string) {
	Debug("frame dropped", zap.String("node", node), zap.String("reason", reason))
}

// LogRadioResult logs the outcome of one radio TX attempt.
func LogRadioResult(node, result string, msgType byte, seq byte) {
	Info("radio TX",
		zap.String("node", node),
		zap.String("result", result),
		zap.Int("msg_type", int(msgType)),
		zap.Int("seq", int(seq)),
	)
}

// LogModeTransition logs a controller mode change, whether operator-issued
// or safety-forced.
func LogModeTransition(from, to, cause string) {
	Info("mode transition",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("cause", cause),
	)
}

// LogAckMismatch logs an Ack frame that did not match the active
// PendingCommand (wrong msg_type or sequence).
func LogAckMismatch(expectedType, gotType byte, expectedSeq, gotSeq byte) {
	Debug("ack mismatch",
		zap.Int("expected_msg_type", int(expectedType)),
		zap.Int("got_msg_type", int(gotType)),
		zap.Int("expected_seq", int(expectedSeq)),
		zap.Int("got_seq", int(gotSeq)),
	)
}

// LogRawBytes logs raw bytes (useful for debugging protocol issues)
func LogRawBytes(label string, data []byte) {
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
	)
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > 256 {
		return hex.EncodeToString(data[:256]) + "..."
	}
	return hex.EncodeToString(data)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
