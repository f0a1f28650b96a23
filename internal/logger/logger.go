package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建Logger实例
// level: "debug", "info", "warn", "error" (默认: "info")
// format: "json" 或 "console" (默认: "json")
func New(level string, format string, serviceName string) (*zap.Logger, error) {
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

	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}

	baseLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	if serviceName != "" {
		baseLogger = baseLogger.With(zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		baseLogger = baseLogger.With(zap.String("hostname", hostname))
	}
	return baseLogger, nil
}
