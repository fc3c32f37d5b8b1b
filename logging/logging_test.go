package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("debug entry", "points", 3)
	logger.Sublogger("writer").Infof("wrote %d bytes", 36)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "debug entry")
	test.That(t, entries[0].ContextMap()["points"], test.ShouldEqual, int64(3))
	test.That(t, entries[1].Message, test.ShouldEqual, "wrote 36 bytes")
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "writer")
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)

	logger := NewBlankLogger("blank")
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}

func TestGlobalLogLevel(t *testing.T) {
	defer GlobalLogLevel.SetLevel(GlobalLogLevel.Level())

	GlobalLogLevel.SetLevel(zapcore.InfoLevel)
	logger := NewLogger("level")
	test.That(t, logger.AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)

	GlobalLogLevel.SetLevel(zapcore.DebugLevel)
	test.That(t, logger.AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)

	test.That(t, NewDebugLogger("debug").AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
	test.That(t, NewBlankLogger("blank").AsZap().Desugar().Core().Enabled(zapcore.ErrorLevel), test.ShouldBeFalse)
}
