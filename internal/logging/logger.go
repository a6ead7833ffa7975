package logging

// Leveled logging for zbncp

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

// ParseLevel maps a level name to a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	switch strings.ToLower(name) {
	case "silent", "quiet":
		return LogLevelSilent, true
	case "error":
		return LogLevelError, true
	case "", "info":
		return LogLevelInfo, true
	case "verbose":
		return LogLevelVerbose, true
	case "debug":
		return LogLevelDebug, true
	}
	return LogLevelInfo, false
}

// Entry is one message kept by a capture logger.
type Entry struct {
	Prefix  string
	Message string
}

// Capture collects messages written through a capture logger.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
}

// Entries returns a copy of the collected messages.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Count returns how many collected messages carry prefix and contain substr.
func (c *Capture) Count(prefix, substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if (prefix == "" || e.Prefix == prefix) && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func (c *Capture) add(prefix, msg string) {
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Prefix: prefix, Message: msg})
	c.mu.Unlock()
}

// Logger provides leveled logging to the console and an optional file
type Logger struct {
	mu      sync.Mutex
	level   LogLevel
	file    *os.File
	fileLog *log.Logger
	stdout  *log.Logger
	stderr  *log.Logger
	capture *Capture
	onLine  func(string)
}

// NewLogger creates a new logger
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	l := &Logger{
		level:  level,
		stdout: log.New(os.Stdout, "", 0),
		stderr: log.New(os.Stderr, "", 0),
	}

	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		l.fileLog = log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	}

	return l, nil
}

// NewCaptureLogger returns a logger that keeps every message in memory and
// writes nothing to the console.
func NewCaptureLogger(level LogLevel) (*Logger, *Capture) {
	c := &Capture{}
	return &Logger{level: level, capture: c}, c
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{level: LogLevelSilent}
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

// OnLine registers a callback that receives every emitted line. The live
// view uses it to mirror the session log.
func (l *Logger) OnLine(fn func(string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLine = fn
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(LogLevelError, "ERROR", true, format, v...)
}

// Warn logs a warning. Warnings share the error threshold but go to stdout.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(LogLevelError, "WARN", false, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(LogLevelInfo, "INFO", false, format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.logf(LogLevelVerbose, "VERBOSE", false, format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(LogLevelDebug, "DEBUG", false, format, v...)
}

func (l *Logger) logf(min LogLevel, prefix string, isError bool, format string, v ...interface{}) {
	if l == nil || l.GetLevel() < min {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if l.capture != nil {
		l.capture.add(prefix, msg)
	}
	l.write(prefix+": "+msg, isError, prefix == "WARN")
}

// write writes a message to the appropriate outputs
func (l *Logger) write(msg string, isError, isWarn bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		l.fileLog.Println(msg)
	}
	if l.onLine != nil {
		l.onLine(msg)
	}

	// Errors go to stderr; warnings always reach stdout; the rest only at verbose or above
	switch {
	case isError && l.stderr != nil:
		l.stderr.Println(msg)
	case l.stdout == nil:
	case isWarn || l.level >= LogLevelVerbose:
		l.stdout.Println(msg)
	}
}

// SetConsole turns console output on or off. The file sink, capture and
// line callback are unaffected.
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if enabled {
		l.stdout = log.New(os.Stdout, "", 0)
		l.stderr = log.New(os.Stderr, "", 0)
		return
	}
	l.stdout, l.stderr = nil, nil
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogFrame logs a one-line summary of a frame crossing the transport.
func (l *Logger) LogFrame(direction string, size int, summary string) {
	l.Verbose("%s %4d bytes %s", direction, size, summary)
}

// LogStartup logs startup information
func (l *Logger) LogStartup(runID, scenario, transport, configPath string) {
	l.Info("Starting zbncp run %s", runID)
	l.Verbose("  Scenario: %s", scenario)
	l.Verbose("  Transport: %s", transport)
	l.Verbose("  Config: %s", configPath)
}

// LogHex logs hex data (for debug level)
func (l *Logger) LogHex(label string, data []byte) {
	if l == nil || l.GetLevel() < LogLevelDebug {
		return
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	l.Debug("%s: %s", label, sb.String())
}
