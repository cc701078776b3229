// Package telemetrylog builds the transition controller's logger. It wires
// stderr and an append-only log file behind a single *logrus.Logger,
// built around a configurable level and output the way this stack's
// other services construct their loggers.
package telemetrylog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogFile is the append-only log file used when no path is given.
const DefaultLogFile = "mavsdk_vtol_transition.log"

// New builds a logger that writes to stderr and appends to logFile. debug
// selects Debug level (per-cycle step logs); otherwise Info is the floor.
func New(logFile string, debug bool) (*logrus.Logger, error) {
	if logFile == "" {
		logFile = DefaultLogFile
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log sink %s: %w", logFile, err)
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger, nil
}
