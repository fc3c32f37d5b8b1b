package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.viam.com/potree/logging"
)

// UpdateLogLevel sets logging.GlobalLogLevel from the command line and config file debug
// flags. If either asks for debug logs the level is Debug, otherwise it is Info.
func UpdateLogLevel(logger logging.Logger, cmdLineDebug bool, conf *Config) {
	var newLevel zapcore.Level
	if cmdLineDebug || (conf != nil && conf.Debug) {
		newLevel = zap.DebugLevel
	} else {
		newLevel = zap.InfoLevel
	}

	if logging.GlobalLogLevel.Level() == newLevel {
		return
	}
	logger.Info("New log level: ", newLevel)
	logging.GlobalLogLevel.SetLevel(newLevel)
}
