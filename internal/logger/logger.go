// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Output goes to stderr unless SetOutputFile routes it to a size-rotated
// log file.
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("scanning %d tickers", n)
//	logger.Debugf("spot=%f hv=%f", spot, hv)
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// current holds the active verbosity level. Ranking workers log
// concurrently, so it is read atomically.
var current atomic.Int32

var std = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

func init() {
	current.Store(int32(Info))
}

// SetVerbosity sets the global logging verbosity. Values outside
// [Error, Trace] are clamped.
func SetVerbosity(v int) {
	switch {
	case v < int(Error):
		v = int(Error)
	case v > int(Trace):
		v = int(Trace)
	}
	current.Store(int32(v))
}

// Verbosity returns the active level.
func Verbosity() Level {
	return Level(current.Load())
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetOutputFile writes logs to path, rotating at maxSizeMB and keeping
// maxBackups compressed old files. The returned closer releases the file.
func SetOutputFile(path string, maxSizeMB, maxBackups int) io.Closer {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	std.SetOutput(lj)
	return lj
}

// logf checks verbosity and delegates formatting/output to the
// standard library logger. calldepth 3 reports the caller of Errorf/Infof/...
func logf(l Level, prefix, format string, args ...any) {
	if Verbosity() >= l {
		_ = std.Output(3, prefix+fmt.Sprintf(format, args...))
	}
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	logf(Error, "[ERROR] ", format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logf(Info, "[INFO]  ", format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, "[DEBUG] ", format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, "[TRACE] ", format, args...)
}
