// Package log is a thin key/value front end over logrus.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02T15:04:05.000"

// SetLogger configures the process-wide logger. level is a logrus level
// name ("debug", "info", ...). A nil out selects stderr.
func SetLogger(level string, jsonFormat bool, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	if jsonFormat {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			DisableSorting:  true,
		})
	}
	return nil
}

// OpenFile opens path for appending log output.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("log: open %s: %w", path, err)
	}
	return f, nil
}

// WithFields turns alternating key/value arguments into a log entry.
// Non-string keys and a trailing odd value are dropped.
func WithFields(ctx ...interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(ctx)/2)
	for k := 0; k+2 <= len(ctx); k += 2 {
		if key, ok := ctx[k].(string); ok {
			fields[key] = ctx[k+1]
		}
	}
	return logrus.WithFields(fields)
}

func Debug(msg string, ctx ...interface{}) { WithFields(ctx...).Debug(msg) }
func Info(msg string, ctx ...interface{})  { WithFields(ctx...).Info(msg) }
func Warn(msg string, ctx ...interface{})  { WithFields(ctx...).Warn(msg) }
func Error(msg string, ctx ...interface{}) { WithFields(ctx...).Error(msg) }
func Fatal(msg string, ctx ...interface{}) { WithFields(ctx...).Fatal(msg) }

func Debugf(format string, args ...interface{}) { logrus.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { logrus.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logrus.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logrus.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { logrus.Fatalf(format, args...) }

// Writer returns a writer whose lines are logged at debug level. The
// caller closes it when done.
func Writer() *io.PipeWriter {
	return logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
}
