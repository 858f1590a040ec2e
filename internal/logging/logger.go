// Package logging provides a shared logger and log utilities to be used in all
// internal packages.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	atom = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	L *zap.Logger        = newLogger()
	S *zap.SugaredLogger = L.Sugar()
)

func newLogger() *zap.Logger {
	var (
		encoder zapcore.Encoder
		writer  zapcore.WriteSyncer
	)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		writer = zapcore.Lock(os.Stderr)
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: "message",

			LevelKey:    "level",
			EncodeLevel: zapcore.CapitalColorLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.ISO8601TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
	} else {
		writer = zapcore.Lock(os.Stderr)
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, writer, atom)

	return zap.New(core, zap.AddCaller())
}

// SetLevel sets the level of the shared logger from a level name
// (error, warn, info, debug).
func SetLevel(name string) error {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}

	atom.SetLevel(level)
	return nil
}

func Debugf(format string, args ...interface{}) {
	S.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	S.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	S.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	S.Errorf(format, args...)
}
