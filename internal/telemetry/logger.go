package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cassiel99/gptbot/configs"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger configures the global logrus logger. Output goes to stdout and,
// when cfg.File is set, to a rotated log file as well. The returned closer
// releases the log file.
func InitLogger(cfg configs.Log, debug bool) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(level)

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, fileLogger))

	return fileLogger, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
