package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		mcp     bool
		want    logrus.Level
	}{
		{"default", false, false, logrus.WarnLevel},
		{"verbose", true, false, logrus.DebugLevel},
		{"mcp", false, true, logrus.InfoLevel},
		{"verbose mcp", true, true, logrus.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logrus.New()
			closer, err := setupLogger(logger, &Config{Verbose: tt.verbose, CacheDir: t.TempDir()}, tt.mcp)
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestSetupLoggerMCPWritesToFile(t *testing.T) {
	config := &Config{CacheDir: filepath.Join(t.TempDir(), "cache"), LogJSON: true}
	logger := logrus.New()

	closer, err := setupLogger(logger, config, true)
	require.NoError(t, err)

	logger.WithField("component", "mcp").Info("started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(config.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"mcp"`)
	assert.Contains(t, string(data), `"msg":"started"`)
}

func TestSetupLoggerTextFormatter(t *testing.T) {
	logger := logrus.New()
	_, err := setupLogger(logger, &Config{}, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.Warn("careful")
	assert.Contains(t, buf.String(), "careful")
	assert.NotContains(t, buf.String(), `"msg"`)
}
