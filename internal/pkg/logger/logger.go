package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

var log = logrus.New()

// Setup configures the shared logger from LOG_LEVEL and LOG_FORMAT.
func Setup() *logrus.Logger {
	level, err := logrus.ParseLevel(strings.ToLower(env.GetEnv("LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if env.GetEnv("LOG_FORMAT", "json") == "text" || env.IsDev() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// Get returns the shared logger.
func Get() *logrus.Logger {
	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
