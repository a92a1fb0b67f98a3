package common

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger writing to stdout and, when path is set, appending to that file as
// well. If the file is unavailable, logging stays on the console.
//
// Arguments:
//   - level: A logrus level name ("debug", "info", ...). Unknown names fall back to info.
//   - path: Optional log file path.
//
// Returns:
//   - *logrus.Logger: The configured logger.
func NewLogger(level, path string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	log.SetOutput(os.Stdout)
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Warn("Failed to log to file, using default stdout")
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}
	return log
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
