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

// Package cfg holds the process configuration: structs unmarshalled from a
// YAML config file and/or command-line flags, plus their validation and
// rationalization.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	PageCache PageCacheConfig `yaml:"page-cache"`

	ReadAhead ReadAheadConfig `yaml:"read-ahead"`

	Workers WorkersConfig `yaml:"workers"`
}

type LoggingConfig struct {
	FilePath ResolvedPath `yaml:"file-path"`

	Format string `yaml:"format"`

	Severity LogSeverity `yaml:"severity"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`
}

type LogRotateLoggingConfig struct {
	BackupFileCount int `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`

	MaxFileSizeMb int `yaml:"max-file-size-mb"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type PageCacheConfig struct {
	// PageSizeBytes is the cache page size. Must be a power of two.
	PageSizeBytes int64 `yaml:"page-size-bytes"`

	// CapacityPages bounds the presence index.
	CapacityPages int64 `yaml:"capacity-pages"`

	// PoolPagesPerStream bounds the pages a single stream may pin awaiting
	// I/O. Zero lets rationalization derive it from the window cap.
	PoolPagesPerStream int64 `yaml:"pool-pages-per-stream"`

	// GlobalPagesLimit bounds pages pinned awaiting I/O across all streams.
	// Zero lets rationalization derive it from the index capacity.
	GlobalPagesLimit int64 `yaml:"global-pages-limit"`
}

type ReadAheadConfig struct {
	// MaxWindowPages caps the read-ahead window per stream. Zero disables
	// read-ahead.
	MaxWindowPages int64 `yaml:"max-window-pages"`

	// MemoryClamp, when set, halves the window cap against presently
	// reclaimable memory.
	MemoryClamp bool `yaml:"memory-clamp"`
}

type WorkersConfig struct {
	PriorityWorkers int64 `yaml:"priority-workers"`

	NormalWorkers int64 `yaml:"normal-workers"`
}

func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("log-file", "", "", "The file to write logs to. When unset, logs go to stdout.")

	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "json", "The format of the log file: 'text' or 'json'.")

	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Specifies the logging severity: one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")

	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.IntP("log-rotate-backup-file-count", "", 10, "The maximum number of backup log files to retain after rotation. 0 retains all backup files.")

	if err = viper.BindPFlag("logging.log-rotate.backup-file-count", flagSet.Lookup("log-rotate-backup-file-count")); err != nil {
		return err
	}

	flagSet.BoolP("log-rotate-compress", "", true, "Controls whether rotated log files should be compressed using gzip.")

	if err = viper.BindPFlag("logging.log-rotate.compress", flagSet.Lookup("log-rotate-compress")); err != nil {
		return err
	}

	flagSet.IntP("log-rotate-max-file-size-mb", "", 512, "The maximum size in megabytes a log file can reach before it is rotated.")

	if err = viper.BindPFlag("logging.log-rotate.max-file-size-mb", flagSet.Lookup("log-rotate-max-file-size-mb")); err != nil {
		return err
	}

	flagSet.BoolP("enable-metrics", "", false, "Enables OpenTelemetry metrics for the read-ahead engine.")

	if err = viper.BindPFlag("metrics.enabled", flagSet.Lookup("enable-metrics")); err != nil {
		return err
	}

	flagSet.Int64P("page-size-bytes", "", 4096, "The cache page size in bytes. Must be a power of two.")

	if err = viper.BindPFlag("page-cache.page-size-bytes", flagSet.Lookup("page-size-bytes")); err != nil {
		return err
	}

	flagSet.Int64P("capacity-pages", "", 65536, "The maximum number of pages the presence index holds.")

	if err = viper.BindPFlag("page-cache.capacity-pages", flagSet.Lookup("capacity-pages")); err != nil {
		return err
	}

	flagSet.Int64P("pool-pages-per-stream", "", 0, "The maximum number of pages one stream may pin awaiting I/O. 0 derives the limit from the window cap.")

	if err = viper.BindPFlag("page-cache.pool-pages-per-stream", flagSet.Lookup("pool-pages-per-stream")); err != nil {
		return err
	}

	flagSet.Int64P("global-pages-limit", "", 0, "The maximum number of pages pinned awaiting I/O across all streams. 0 derives the limit from the index capacity.")

	if err = viper.BindPFlag("page-cache.global-pages-limit", flagSet.Lookup("global-pages-limit")); err != nil {
		return err
	}

	flagSet.Int64P("max-window-pages", "", 32, "The read-ahead window cap per stream, in pages. 0 disables read-ahead.")

	if err = viper.BindPFlag("read-ahead.max-window-pages", flagSet.Lookup("max-window-pages")); err != nil {
		return err
	}

	flagSet.BoolP("memory-clamp", "", true, "Clamps the read-ahead window cap to half of presently reclaimable memory.")

	if err = viper.BindPFlag("read-ahead.memory-clamp", flagSet.Lookup("memory-clamp")); err != nil {
		return err
	}

	flagSet.Int64P("priority-workers", "", 2, "The number of workers reserved for urgent device I/O.")

	if err = viper.BindPFlag("workers.priority-workers", flagSet.Lookup("priority-workers")); err != nil {
		return err
	}

	flagSet.Int64P("normal-workers", "", 8, "The number of workers servicing speculative device I/O.")

	if err = viper.BindPFlag("workers.normal-workers", flagSet.Lookup("normal-workers")); err != nil {
		return err
	}

	return nil
}
