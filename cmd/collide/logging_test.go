package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from a scratch directory so logs/ lands there
func inTempDir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestSetupLoggingStderr(t *testing.T) {
	inTempDir(t)

	logger, file := setupLogging(log.WarnLevel, false)
	assert.Nil(t, file)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	_, err := os.Stat(logDir)
	assert.True(t, os.IsNotExist(err), "no log directory without file logging")
}

func TestSetupLoggingFile(t *testing.T) {
	inTempDir(t)

	logger, file := setupLogging(log.DebugLevel, true)
	require.NotNil(t, file)
	defer file.Close()

	logger.Info("test log message", "k", 1)

	info, err := os.Stat(filepath.Join(logDir, logFileName))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSetupLoggingRotation(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.MkdirAll(logDir, 0o755))

	logPath := filepath.Join(logDir, logFileName)
	require.NoError(t, os.WriteFile(logPath, make([]byte, maxLogSize+1), 0o644))

	_, file := setupLogging(log.InfoLevel, true)
	require.NotNil(t, file)
	defer file.Close()

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	rotated := false
	for _, e := range entries {
		if e.Name() != logFileName && filepath.Ext(e.Name()) == ".log" {
			rotated = true
		}
	}
	assert.True(t, rotated, "expected a rotated log file")

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(maxLogSize))
}
