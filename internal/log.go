package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging configures the standard logrus logger from config. In MCP mode
// stdout carries protocol frames only, so logs are appended to config.LogPath()
// instead of stderr. The returned Closer releases the log file.
func SetupLogging(config *Config, mcpMode bool) (io.Closer, error) {
	return setupLogger(logrus.StandardLogger(), config, mcpMode)
}

func setupLogger(logger *logrus.Logger, config *Config, mcpMode bool) (io.Closer, error) {
	level := logrus.WarnLevel
	switch {
	case config.Verbose:
		level = logrus.DebugLevel
	case mcpMode:
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    mcpMode,
			DisableTimestamp: !mcpMode,
		})
	}

	if !mcpMode {
		logger.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	logPath := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		logger.SetOutput(io.Discard)
		return nopCloser{}, fmt.Errorf("creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.SetOutput(io.Discard)
		return nopCloser{}, fmt.Errorf("opening log file: %w", err)
	}

	logger.SetOutput(logFile)
	return logFile, nil
}

// Logger returns an entry tagged with component
func Logger(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
