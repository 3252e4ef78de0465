package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger provides debug logging for serpwalk components.
// All logs are written to a run-specific file in ~/.serpwalk/logs/
//
// Every entry carries the component name and the run id as fields.
type Logger struct {
	runID     string
	component string
	entry     *logrus.Entry
	file      *os.File
	logPath   string
	closeOnce sync.Once
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored. Empty means
	// ~/.serpwalk/logs.
	logDir string

	initOnce sync.Once
	initErr  error
)

// getRunID returns or creates the run ID for this execution
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".serpwalk", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

func newBackend(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.serpwalk/logs/<run-id>-serpwalk.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-serpwalk.log", id))

	// Append mode: every component of a run shares one file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	l := New(file, component)
	l.file = file
	l.logPath = logPath
	return l, nil
}

// New creates a logger writing to w. It does not own w.
func New(w io.Writer, component string) *Logger {
	id := getRunID()
	return &Logger{
		runID:     id,
		component: component,
		entry: newBackend(w).WithFields(logrus.Fields{
			"component": component,
			"run_id":    id,
		}),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "discard")
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	l := New(os.Stderr, component)
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// With returns a logger for a sub-component sharing the same output.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: component,
		entry:     l.entry.WithField("component", component),
		logPath:   l.logPath,
	}
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// RunID returns the run ID this logger tags entries with
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty for non-file loggers
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
