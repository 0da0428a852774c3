// Package logging builds the zap logger used by the CLI. Diagnostics go to
// stderr so server output on stdout stays clean enough to pipe; an optional
// rotating file sink captures debug detail for longer-lived setups.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the sinks and verbosity for New.
type Options struct {
	Debug   bool   // lower the level to debug
	Quiet   bool   // only errors on the console
	NoColor bool   // plain level names on the console
	LogFile string // also log (at debug) to this rotating file
}

// New constructs the process logger. It never fails: a broken file sink
// just leaves the console core in place.
func New(opts Options) *zap.SugaredLogger {
	consoleLevel := zapcore.WarnLevel
	switch {
	case opts.Debug:
		consoleLevel = zapcore.DebugLevel
	case opts.Quiet:
		consoleLevel = zapcore.ErrorLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	if opts.NoColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if opts.LogFile != "" {
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), sink, zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}
