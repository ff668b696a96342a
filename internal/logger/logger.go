package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	entry *logrus.Entry
}

func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter builds a logger that writes text lines to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &Logger{entry: logrus.NewEntry(base)}
}

// WithField returns a child logger that tags every line with key=value.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.entry.Fatalf(msg, args...)
}

// Writer streams raw lines into the logger at info level. Callers must close it.
func (l *Logger) Writer() *io.PipeWriter {
	return l.entry.Writer()
}
