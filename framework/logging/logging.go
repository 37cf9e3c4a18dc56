// Package logging builds the application's zap logger from configuration.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-bootstrap/framework/config"
)

// New creates a logger. Local environments get zap's development settings
// (console encoding, stack traces on warn); everything else gets the
// production ones. Level and format from cfg.Log override both.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsLocal() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if cfg.Log.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if cfg.Log.Format != "" {
		zc.Encoding = cfg.Log.Format
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return logger.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
}

// Must is New that panics, for composition roots.
func Must(cfg *config.Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}
