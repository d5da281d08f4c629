// Package logging holds the process-wide logger.
package logging

import (
	"go.uber.org/zap"
)

var Logger *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger. Debug mode switches to the development
// config with everything enabled; otherwise only warnings and errors reach
// the console so GUI output stays quiet.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	Logger = logger.Sugar()
}
