package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the typed-field logger used by the Redis store and the
// WebSocket hub, configured from LOG_LEVEL and LOG_FORMAT.
func NewZapLogger() (*zap.Logger, error) {
	return NewZapLoggerWithConfig(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "stdout")
}

// NewZapLoggerWithConfig builds a zap logger writing to outputPaths
// ("stdout", "stderr" or file paths). An unknown level means info.
func NewZapLoggerWithConfig(level, format string, outputPaths ...string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if format != logFormatJSON {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timestampFormat)

	lvl, err := zapcore.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Sampling = nil

	if len(outputPaths) > 0 {
		config.OutputPaths = outputPaths
	}
	return config.Build()
}
