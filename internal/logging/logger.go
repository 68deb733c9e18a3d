// Package logging configures the logrus logger shared by all commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
)

// Log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a logger writing to out. Unknown levels fall back to warn so that
// reports on stdout are not interleaved with informational messages.
func New(config domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	if config.Format == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	return logger
}

// ForRun returns an entry tagged with the command name and a fresh run id.
// The run id is repeated in machine readable reports.
func ForRun(logger *logrus.Logger, command string) (*logrus.Entry, string) {
	runID := uuid.NewString()
	return logger.WithFields(logrus.Fields{
		"command": command,
		"run_id":  runID,
	}), runID
}
