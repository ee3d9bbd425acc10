// Package logging provides the logger used by the bbctl command line
// tool: logrus to the terminal plus a size-rotated file.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"backbeat/internal/config"
)

// Logger wraps logrus with the file rotation settings from config.
type Logger struct {
	*logrus.Logger
	rotator *lumberjack.Logger
}

// NewLogger builds a CLI logger writing to stderr and a rotated log file
// under the configured logs directory.
func NewLogger(cfg *config.Config, name string) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogsDirectory, name+".log"),
		MaxSize:    cfg.LogsMaxSizeInMb,
		MaxBackups: cfg.LogsMaxBackups,
		MaxAge:     cfg.LogsMaxAgeInDays,
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stderr, rotator))

	return &Logger{Logger: l, rotator: rotator}
}

// Close flushes and closes the rotated log file.
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}
