package log

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
)

type LogLevel string

const (
	FatalLevel    = "fatal"
	ErrorLevel    = "error"
	WarningLevel  = "warn"
	InfoLevel     = "info"
	DebugLevel    = "debug"
	TraceLevel    = "trace"
	DisabledLevel = "disabled"
)

// Higher weights are more verbose. A message is emitted when its
// weight does not exceed the enabled level's weight.
var weights = map[LogLevel]int{
	DisabledLevel: -1,
	FatalLevel:    0,
	ErrorLevel:    1,
	WarningLevel:  2,
	InfoLevel:     3,
	DebugLevel:    4,
	TraceLevel:    5,
}

// leveledLogger routes messages to stdout or stderr depending on
// severity. Warnings and worse go to stderr.
type leveledLogger struct {
	out    *log.Logger
	errOut *log.Logger
	level  LogLevel
}

var std = &leveledLogger{
	out:    log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds),
	errOut: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	level:  InfoLevel,
}

func (l *leveledLogger) target(level LogLevel) *log.Logger {
	if weights[level] <= weights[WarningLevel] {
		return l.errOut
	}
	return l.out
}

func (l *leveledLogger) print(level LogLevel, args ...interface{}) {
	if !ShouldLog(level, l.level) {
		return
	}
	msg := strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	l.target(level).Printf("[%-5s] %s", level, msg)
}

func (l *leveledLogger) printf(level LogLevel, format string, args ...interface{}) {
	if !ShouldLog(level, l.level) {
		return
	}
	l.target(level).Printf("[%-5s] %s", level, fmt.Sprintf(format, args...))
}

func SetLevel(level LogLevel) error {
	if !ValidLogLevel(level) {
		return fmt.Errorf("no such log level %s", level)
	}
	std.level = level
	return nil
}

func GetLevel() LogLevel {
	return std.level
}

func ValidLogLevel(level LogLevel) bool {
	_, ok := weights[level]
	return ok
}

func ShouldLog(level, enabled LogLevel) bool {
	if !ValidLogLevel(level) || !ValidLogLevel(enabled) {
		return false
	}
	return weights[level] <= weights[enabled]
}

func Trace(args ...interface{}) {
	std.print(TraceLevel, args...)
}

func Debug(args ...interface{}) {
	std.print(DebugLevel, args...)
}

func Info(args ...interface{}) {
	std.print(InfoLevel, args...)
}

func Warn(args ...interface{}) {
	std.print(WarningLevel, args...)
}

func Error(args ...interface{}) {
	std.print(ErrorLevel, args...)
}

func Fatal(args ...interface{}) {
	std.print(FatalLevel, args...)
	debug.PrintStack()
	os.Exit(1)
}

func Tracef(format string, args ...interface{}) {
	std.printf(TraceLevel, format, args...)
}

func Debugf(format string, args ...interface{}) {
	std.printf(DebugLevel, format, args...)
}

func Infof(format string, args ...interface{}) {
	std.printf(InfoLevel, format, args...)
}

func Warnf(format string, args ...interface{}) {
	std.printf(WarningLevel, format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.printf(ErrorLevel, format, args...)
}

func Fatalf(format string, args ...interface{}) {
	std.printf(FatalLevel, format, args...)
	debug.PrintStack()
	os.Exit(1)
}

// DebugError logs an error and each cause in its unwrap chain.
func DebugError(err error) {
	Debug(err.Error())

	for depth := 1; ; depth++ {
		if err = errors.Unwrap(err); err == nil {
			return
		}
		Debugf("  caused by (%d): %s", depth, err.Error())
	}
}
