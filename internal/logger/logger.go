// Package logger holds the process-wide logger used by shmalloc packages.
//
// Logging is off by default: L returns a logger writing to io.Discard until
// Init is called or SHMEAP_LOG names a level.
package logger

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EnvLevel names the environment variable that enables logging to stderr.
const EnvLevel = "SHMEAP_LOG"

var current atomic.Pointer[logrus.Logger]

// Options configures the logger.
type Options struct {
	Enabled bool          // If false, all logging is discarded
	Output  io.Writer     // Destination. Default: os.Stderr
	Level   *logrus.Level // Minimum level. Default: InfoLevel when enabled
	JSON    bool          // Use the JSON formatter instead of text
}

func init() {
	current.Store(newDiscard())
	if s := os.Getenv(EnvLevel); s != "" {
		if lvl, err := logrus.ParseLevel(s); err == nil {
			Init(Options{Enabled: true, Level: &lvl})
		}
	}
}

// L returns the current logger. Safe to call concurrently with Init.
func L() *logrus.Logger {
	return current.Load()
}

// Init replaces the logger returned by L according to opts.
func Init(opts Options) {
	if !opts.Enabled {
		current.Store(newDiscard())
		return
	}

	l := logrus.New()
	l.SetOutput(os.Stderr)
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	}
	l.SetLevel(logrus.InfoLevel)
	if opts.Level != nil {
		l.SetLevel(*opts.Level)
	}
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	current.Store(l)
}

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
