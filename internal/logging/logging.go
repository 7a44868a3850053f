package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/postcrab/postcrab/internal/errdef"
)

type Options struct {
	Level string
	// File receives log output when set; otherwise Output is used.
	File   string
	Output io.Writer
}

// New builds the diagnostic logger. The returned closer releases the log file
// and is safe to call when no file was opened.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	level := logrus.InfoLevel
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		parsed, err := logrus.ParseLevel(raw)
		if err != nil {
			return nil, nil, errdef.Wrap(errdef.CodeConfig, err, "log level")
		}
		level = parsed
	}
	logger.SetLevel(level)

	closer := func() error { return nil }
	switch {
	case strings.TrimSpace(opts.File) != "":
		path := filepath.Clean(opts.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, errdef.Wrap(errdef.CodeFilesystem, err, "ensure log directory")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errdef.Wrap(errdef.CodeFilesystem, err, "open log file %q", path)
		}
		logger.SetOutput(f)
		closer = f.Close
	case opts.Output != nil:
		logger.SetOutput(opts.Output)
	default:
		logger.SetOutput(os.Stderr)
	}
	return logger, closer, nil
}

// Discard is used when a component is built without a logger.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
