package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/potree/config"
	"go.viam.com/potree/logging"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "Warning: "+format+"\n", a...)
}

// newLogger returns a logger at logging.GlobalLogLevel, which starts at Debug when the
// debug flag is set and Info otherwise.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewLogger("potree")
	config.UpdateLogLevel(logger, c.Bool(flagDebug), nil)
	logging.ReplaceGlobal(logger)
	return logger
}
