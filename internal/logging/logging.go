// Package logging constructs the kernel's structured logger. Flows
// log best-effort failures (see internal/flows) and cmd/geoplacesd
// logs its sweeps through a *zap.Logger passed in at composition
// time; this package owns only how that logger is built.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects the logger's encoding and level defaults.
type Environment int

const (
	// Production emits JSON at info level and above.
	Production Environment = iota
	// Development emits human-readable console output at debug level
	// and above, with stack traces on warn.
	Development
)

// New builds a *zap.Logger for env. Callers should defer Sync() on the
// result.
func New(env Environment) (*zap.Logger, error) {
	switch env {
	case Development:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	default:
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
}
