package fs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// InstallLogger adjusts the global logger for the given verbosity.
// The default shows info and above, -v adds debug, -q drops everything
// below warning.
func InstallLogger(verbose int, quiet bool) {
	switch {
	case quiet:
		logrus.SetLevel(logrus.WarnLevel)
	case verbose >= 1:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// logf prints the message at the given level, tagging it with the
// object it is about if there is one.
func logf(level logrus.Level, o interface{}, format string, args ...interface{}) {
	out := fmt.Sprintf(format, args...)
	if o != nil {
		out = fmt.Sprintf("%v: %s", o, out)
	}
	switch level {
	case logrus.DebugLevel:
		logrus.Debug(out)
	case logrus.InfoLevel:
		logrus.Info(out)
	case logrus.WarnLevel:
		logrus.Warn(out)
	case logrus.ErrorLevel:
		logrus.Error(out)
	}
}

// Debugf writes debug level output for this Object
func Debugf(o interface{}, format string, args ...interface{}) {
	logf(logrus.DebugLevel, o, format, args...)
}

// Infof writes info level output for this Object
func Infof(o interface{}, format string, args ...interface{}) {
	logf(logrus.InfoLevel, o, format, args...)
}

// Warnf writes warning level output for this Object
func Warnf(o interface{}, format string, args ...interface{}) {
	logf(logrus.WarnLevel, o, format, args...)
}

// Errorf writes error level output for this Object
func Errorf(o interface{}, format string, args ...interface{}) {
	logf(logrus.ErrorLevel, o, format, args...)
}
