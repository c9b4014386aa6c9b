package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the diagnostic logger. With a log file configured entries
// are appended there; otherwise they go to fallback, and a nil fallback
// discards them. The returned close func releases the log file.
func (l LoggingConfig) NewLogger(fallback io.Writer) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	noop := func() error { return nil }

	level := logrus.InfoLevel
	if l.Level != "" {
		parsed, err := logrus.ParseLevel(l.Level)
		if err != nil {
			return nil, noop, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	if l.Structured {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	switch {
	case l.File != "":
		fh, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(fh)
		return logger, fh.Close, nil
	case fallback != nil:
		logger.SetOutput(fallback)
	default:
		logger.SetOutput(io.Discard)
	}
	return logger, noop, nil
}
