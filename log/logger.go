package log

import (
	"fmt"
	"os"
	"time"
)

// logEntry is a single fully-formatted line handed off to a Backend's
// writeChan for dispatch to every writer whose level admits it.
type logEntry struct {
	level Level
	log   []byte
}

// Logger writes formatted log messages for a single subsystem to its
// Backend. It is safe for concurrent use.
type Logger struct {
	level        Level
	subsystemTag string
	backend      *Backend
	writeChan    chan logEntry
}

// SetLevel changes the logging level of the logger.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// Level returns the current logging level of the logger.
func (l *Logger) Level() Level {
	return l.level
}

const timestampFormat = "2006-01-02 15:04:05.000"

func (l *Logger) write(level Level, s string) {
	if level < l.level {
		return
	}
	line := fmt.Sprintf("%s [%s] %s: %s\n", time.Now().Format(timestampFormat), level, l.subsystemTag, s)
	entry := logEntry{level: level, log: []byte(line)}

	if !l.backend.IsRunning() {
		_, _ = os.Stderr.Write(entry.log)
		return
	}
	l.writeChan <- entry
}

// Tracef formats message according to format and writes to log with
// LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, fmt.Sprintf(format, args...))
}

// Debugf formats message according to format and writes to log with
// LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof formats message according to format and writes to log with
// LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf formats message according to format and writes to log with
// LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf formats message according to format and writes to log with
// LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

// Criticalf formats message according to format and writes to log with
// LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, fmt.Sprintf(format, args...))
}

// Trace writes s to log with LevelTrace.
func (l *Logger) Trace(s string) { l.write(LevelTrace, s) }

// Debug writes s to log with LevelDebug.
func (l *Logger) Debug(s string) { l.write(LevelDebug, s) }

// Info writes s to log with LevelInfo.
func (l *Logger) Info(s string) { l.write(LevelInfo, s) }

// Warn writes s to log with LevelWarn.
func (l *Logger) Warn(s string) { l.write(LevelWarn, s) }

// Error writes s to log with LevelError.
func (l *Logger) Error(s string) { l.write(LevelError, s) }

// Critical writes s to log with LevelCritical.
func (l *Logger) Critical(s string) { l.write(LevelCritical, s) }
