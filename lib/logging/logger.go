package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

type LogEntry struct {
	*logrus.Entry
}

type StructuredLogger interface {
	logrus.FieldLogger
}

func New(application string, out io.Writer) *LogEntry {
	l := logrus.New()
	l.Out = out

	return &LogEntry{
		l.WithFields(logrus.Fields{
			"applicationName": application,
		}),
	}
}

// NewWithLevel builds a logger like New, honouring a textual level ("debug",
// "info", ...) and switching to JSON output when format is "json". An unknown
// level falls back to info.
func NewWithLevel(application string, out io.Writer, level, format string) *LogEntry {
	entry := New(application, out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		entry.Warnf("unknown log level %q, using %s", level, lvl)
	}
	entry.Logger.SetLevel(lvl)

	if format == "json" {
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return entry
}
