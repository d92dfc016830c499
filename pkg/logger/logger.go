package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	errInvalidLevelFmt = "invalid log level %q: %w"
	errBuildLoggerFmt  = "failed to initialize logger: %w"
)

type Options struct {
	Level   string
	Format  string
	Verbose bool
}

// New builds a production zap logger. Verbose forces debug level regardless
// of Level.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if strings.EqualFold(opts.Format, FormatConsole) {
		config.Encoding = FormatConsole
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf(errInvalidLevelFmt, opts.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf(errBuildLoggerFmt, err)
	}
	return log, nil
}

// Safe is a zap string field whose value has credentials redacted.
func Safe(key, value string) zap.Field {
	return zap.String(key, SanitizeLogMessage(value))
}

// SafeMap is a zap field holding data with sensitive keys redacted.
func SafeMap(key string, data map[string]any) zap.Field {
	return zap.Any(key, SanitizeMap(data))
}
