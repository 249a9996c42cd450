// Copyright 2025 CacheFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ProgrammeName is attached to every log record so that pagecache messages
// can be filtered out of shared log sinks.
const ProgrammeName string = "pagecache"

// LevelTrace sits below slog.LevelDebug; it is used for per-decision logging
// on the read-ahead hot path.
const LevelTrace slog.Level = -8

// levelOff is above every severity this package emits.
const levelOff slog.Level = 12

var (
	defaultLogger *slog.Logger
	programLevel  = new(slog.LevelVar)
)

// Config controls the destination, format and severity of log output.
type Config struct {
	// FilePath is the log file to write to. Empty means stdout.
	FilePath string

	// Format is one of "text" or "json".
	Format string

	// Severity is one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF.
	Severity string

	// LogRotate bounds the size and count of rotated log files. Ignored when
	// FilePath is empty.
	LogRotate RotateConfig
}

// RotateConfig mirrors the lumberjack rotation knobs.
type RotateConfig struct {
	MaxSizeMB   int
	BackupCount int
	Compress    bool
}

func init() {
	programLevel.Set(slog.LevelInfo)
	defaultLogger = newLogger(os.Stdout, "text")
}

// Init points the default logger at the configured sink. An empty file path
// keeps logging on stdout. Log files are rotated via lumberjack.
func Init(c Config) error {
	var w io.Writer = os.Stdout
	if c.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.LogRotate.MaxSizeMB,
			MaxBackups: c.LogRotate.BackupCount,
			Compress:   c.LogRotate.Compress,
		}
	}

	if err := setLoggingLevel(c.Severity); err != nil {
		return err
	}
	defaultLogger = newLogger(w, c.Format)
	return nil
}

func newLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       programLevel,
		ReplaceAttr: renameTraceLevel,
	}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("name", ProgrammeName)
}

// renameTraceLevel maps the numeric trace severity to a readable label.
func renameTraceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

func setLoggingLevel(level string) error {
	switch level {
	// Records having severity >= the configured value will be logged.
	case "", "INFO":
		programLevel.Set(slog.LevelInfo)
	case "TRACE":
		programLevel.Set(LevelTrace)
	case "DEBUG":
		programLevel.Set(slog.LevelDebug)
	case "WARNING":
		programLevel.Set(slog.LevelWarn)
	case "ERROR":
		programLevel.Set(slog.LevelError)
	case "OFF":
		programLevel.Set(levelOff)
	default:
		return fmt.Errorf("invalid log severity: %q", level)
	}
	return nil
}

// Tracef prints the message with formatting at trace severity.
func Tracef(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}

// Debugf prints the message with formatting at debug severity.
func Debugf(format string, v ...interface{}) {
	defaultLogger.Debug(fmt.Sprintf(format, v...))
}

// Infof prints the message with formatting at info severity.
func Infof(format string, v ...interface{}) {
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

// Info prints the message at info severity.
func Info(v ...interface{}) {
	defaultLogger.Info(fmt.Sprint(v...))
}

// Warnf prints the message with formatting at warning severity.
func Warnf(format string, v ...interface{}) {
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}

// Errorf prints the message with formatting at error severity.
func Errorf(format string, v ...interface{}) {
	defaultLogger.Error(fmt.Sprintf(format, v...))
}
