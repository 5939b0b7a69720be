// Package logging builds the logrus entries the docsim binaries log through.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns an entry tagged with service that writes to stderr at level,
// formatted as "text" (default) or "json".
func New(service, level, format string) (*logrus.Entry, error) {
	return NewWithWriter(os.Stderr, service, level, format)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(w io.Writer, service, level, format string) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}

	return logger.WithField("service", service), nil
}
