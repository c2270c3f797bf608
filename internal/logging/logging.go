package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for CLI diagnostics. With verbose set, debug messages
// are emitted in a development-friendly console format; otherwise only
// warnings and errors reach stderr.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

// Nop returns a logger that discards everything. Library code takes this as
// the default so logging stays opt-in for embedders.
func Nop() *zap.Logger {
	return zap.NewNop()
}
