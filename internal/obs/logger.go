package obs

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	Level  string
	Pretty bool
	App    string
	Env    string
	Ver    string
}

// NewLogger builds the process logger: JSON on stderr, or a colored console
// encoder when Pretty is set.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(c.level()),
		Development:      c.Pretty,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if c.Pretty {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build(zap.Fields(c.fields()...), zap.AddStacktrace(zapcore.DPanicLevel))
}

// level parses Level case-insensitively; anything unknown logs at info.
func (c LogConfig) level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(c.Level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (c LogConfig) fields() []zap.Field {
	fs := []zap.Field{zap.String("service", c.App)}
	if c.Env != "" {
		fs = append(fs, zap.String("env", c.Env))
	}
	if c.Ver != "" {
		fs = append(fs, zap.String("version", c.Ver))
	}
	return fs
}
