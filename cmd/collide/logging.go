package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const (
	logDir      = "logs"
	logFileName = "collide.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging builds the process logger
// With toFile set the terminal belongs to the viewer, so output goes to logs/collide.log
// (rotated past maxLogSize) and is discarded if the file cannot be opened. The returned file
// is nil when logging to stderr
func setupLogging(level log.Level, toFile bool) (*log.Logger, *os.File) {
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "collide",
	}
	if !toFile {
		return log.NewWithOptions(os.Stderr, opts), nil
	}

	file, err := openLogFile()
	if err != nil {
		return log.NewWithOptions(io.Discard, opts), nil
	}
	opts.TimeFormat = time.DateTime
	return log.NewWithOptions(file, opts), file
}

func openLogFile() (*os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("collide-%s.log", time.Now().Format("20060102-150405")))
		if err := os.Rename(path, rotated); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
