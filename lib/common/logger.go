package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// Names of the loggers used by this module
const (
	LoggerMemory = "memory"
	LoggerPerf   = "perf"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// levelLabels are the level columns of a log line
var levelLabels = map[logger.LogLevel]string{
	logger.CRITICAL: "PANIC",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// bfLogger writes "LEVEL | name | message" lines.
//
// Thread-safety: the level is stored atomically, so SetLevel may run while
// other goroutines log (InitLoggers adjusts loggers that are already in use).
type bfLogger struct {
	name  string
	level atomic.Int32
	out   *log.Logger
}

func newLogger(name string, level logger.LogLevel, w io.Writer) *bfLogger {
	l := &bfLogger{name: name, out: log.New(w, "", log.Ldate|log.Ltime)}
	l.SetLevel(level)
	return l
}

func (l *bfLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *bfLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *bfLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, format, args...)
}

func (l *bfLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, format, args...)
}

func (l *bfLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args...)
}

func (l *bfLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, format, args...)
}

// Panicf logs at CRITICAL if enabled and panics regardless of the level.
func (l *bfLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logf(logger.CRITICAL, "%s", message)
	panic(message)
}

func (l *bfLogger) logf(level logger.LogLevel, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	l.out.Printf("%-5s | %-10s | %s", levelLabels[level], l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// output is where all loggers created by CreateLogger write to
var output io.Writer = os.Stderr

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return newLogger(pkgName, logger.INFO, output)
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// ParseLogLevel converts a level name to a logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs the custom logger factory and sets the level of all
// loggers of this module. It must be called once at startup.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range []string{LoggerMemory, LoggerPerf} {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
