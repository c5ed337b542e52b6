// Package logging configures the process-wide logrus logger from the
// config's logger keys.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// fileHook duplicates entries at or above its level into the logfile.
type fileHook struct {
	writer    io.Writer
	level     logrus.Level
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.level+1]
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// Init applies console level, format and the optional logfile sink.
func Init(consoleLevel, logfileLevel, logfilePath string) error {
	level, err := logrus.ParseLevel(consoleLevel)
	if err != nil {
		return errors.Wrapf(err, "bad console_log_level %q", consoleLevel)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	if logfilePath == "" {
		return nil
	}
	fileLevel, err := logrus.ParseLevel(logfileLevel)
	if err != nil {
		return errors.Wrapf(err, "bad logfile_log_level %q", logfileLevel)
	}
	f, err := os.OpenFile(logfilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening logfile %s", logfilePath)
	}
	if fileLevel > level {
		// The root logger must be at least as verbose as the most
		// verbose sink.
		logrus.SetLevel(fileLevel)
	}
	logrus.AddHook(&fileHook{
		writer: f,
		level:  fileLevel,
		formatter: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000",
			DisableColors:   true,
		},
	})
	return nil
}
