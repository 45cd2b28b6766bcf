package types

import (
	"log"
	"os"
)

// Logger is the diagnostic channel of the host. Nodes report non-fatal
// problems through it, they never return them to the caller.
type Logger interface {
	Printf(format string, v ...interface{})
}

// this is a safeguard, breaking on compile time in case
// `log.Logger` does not adhere to our `Logger` interface.
var _ Logger = &log.Logger{}

// LoggerFunc adapts a printf style function to Logger.
type LoggerFunc func(format string, v ...interface{})

func (f LoggerFunc) Printf(format string, v ...interface{}) {
	f(format, v...)
}

// DefaultLogger returns a `Logger` implementation writing to stdout.
func DefaultLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewLogger returns custom, or the default logger when custom is nil.
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}
