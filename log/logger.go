// Package log provides the category aware logger used across the module.
package log

import (
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger and tags every entry with a category, usually
// the "Type:method" that emitted it. Entries whose category does not match the
// category filter are dropped.
type Logger struct {
	*logrus.Logger

	mu             sync.Mutex
	lastLogCall    int64
	categoryFilter *regexp.Regexp
	colorize       bool
}

// NewNullLogger returns a logger that discards everything.
func NewNullLogger() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, nil)
}

// New wraps logger. A nil categoryFilter lets all categories through.
func New(logger *logrus.Logger, categoryFilter *regexp.Regexp) *Logger {
	return &Logger{
		Logger:         logger,
		categoryFilter: categoryFilter,
	}
}

// Tracef logs a trace message.
func (l *Logger) Tracef(category string, msg string, args ...any) {
	l.Logf(logrus.TraceLevel, category, msg, args...)
}

// Debugf logs a debug message.
func (l *Logger) Debugf(category string, msg string, args ...any) {
	l.Logf(logrus.DebugLevel, category, msg, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(category string, msg string, args ...any) {
	l.Logf(logrus.ErrorLevel, category, msg, args...)
}

// Infof logs an info message.
func (l *Logger) Infof(category string, msg string, args ...any) {
	l.Logf(logrus.InfoLevel, category, msg, args...)
}

// Warnf logs an warning message.
func (l *Logger) Warnf(category string, msg string, args ...any) {
	l.Logf(logrus.WarnLevel, category, msg, args...)
}

// Logf logs a message with the elapsed time since the previous entry.
func (l *Logger) Logf(level logrus.Level, category string, msg string, args ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	// don't log if the current log level isn't in the required level.
	if l.GetLevel() < level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.categoryFilter != nil && !l.categoryFilter.MatchString(category) {
		return
	}

	now := time.Now().UnixNano() / int64(time.Millisecond)
	elapsed := now - l.lastLogCall
	if l.lastLogCall == 0 {
		elapsed = 0
	}
	l.lastLogCall = now

	if l.colorize {
		category = color.New(color.FgMagenta).Sprint(category)
	}
	entry := l.WithFields(logrus.Fields{
		"category": category,
		"elapsed":  fmt.Sprintf("%d ms", elapsed),
	})
	entry.Logf(level, msg, args...)
}

// SetLevel sets the logger level from a level string.
// Accepted values are the logrus level names.
func (l *Logger) SetLevel(level string) error {
	pl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(pl)
	return nil
}

// SetCategoryFilter only lets through entries whose category matches the
// given regular expression. An empty filter removes the filter.
func (l *Logger) SetCategoryFilter(filter string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if filter == "" {
		l.categoryFilter = nil
		return nil
	}
	if l.categoryFilter, err = regexp.Compile(filter); err != nil {
		return fmt.Errorf("compiling category filter %q: %w", filter, err)
	}
	return nil
}

// EnableColor turns on colored categories. Colors are still suppressed
// when the output is not a terminal.
func (l *Logger) EnableColor() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = true
}

// DebugMode returns true if the logger level is set to Debug or higher.
func (l *Logger) DebugMode() bool {
	return l != nil && l.Logger != nil && l.GetLevel() >= logrus.DebugLevel
}
