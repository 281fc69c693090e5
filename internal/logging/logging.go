// Package logging builds the zap logger used by every component.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level string    // debug, info, warn, error
	File  string    // optional log file, appended to
	Out   io.Writer // console output, stderr when nil
}

// New returns a logger writing human-readable lines to the console and,
// when cfg.File is set, to that file as well. The returned func closes the
// file and must be called after the final Sync.
func New(cfg Config) (*zap.Logger, func(), error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(level)

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(), zapcore.Lock(zapcore.AddSync(out)), atom),
	}

	closeFn := func() {}
	if cfg.File != "" {
		sink, closeFile, err := zap.Open(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(newEncoder(), sink, atom))
		closeFn = closeFile
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.DPanicLevel))
	return logger, closeFn, nil
}

func newEncoder() zapcore.Encoder {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = zapcore.OmitKey
	return zapcore.NewConsoleEncoder(encCfg)
}
