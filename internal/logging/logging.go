package logging

import (
	"os"
	"path/filepath"

	"docrag/internal/util"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Debug      bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a JSON logger on stderr, or a console development logger when
// Debug is set. A non-empty File adds a rotating JSON sink.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	var stderrEnc zapcore.Encoder
	if opts.Debug {
		level = zapcore.DebugLevel
		stderrEnc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		stderrEnc = zapcore.NewJSONEncoder(encoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), level),
	}
	if opts.File != "" {
		if err := util.EnsureDir(filepath.Dir(opts.File)); err != nil {
			return nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(rotator), level))
	}

	opt := []zap.Option{zap.AddCaller()}
	if opts.Debug {
		opt = append(opt, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opt...), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
