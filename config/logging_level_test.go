package config_test

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/potree/config"
	"go.viam.com/potree/logging"
)

func TestUpdateLogLevel(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	defer logging.GlobalLogLevel.SetLevel(logging.GlobalLogLevel.Level())

	logging.GlobalLogLevel.SetLevel(zapcore.InfoLevel)
	config.UpdateLogLevel(logger, false, nil)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	config.UpdateLogLevel(logger, false, &config.Config{Debug: true})
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, logs.FilterMessage("New log level: debug").Len(), test.ShouldEqual, 1)

	config.UpdateLogLevel(logger, true, &config.Config{})
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.DebugLevel)

	config.UpdateLogLevel(logger, false, &config.Config{})
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.InfoLevel)
}
