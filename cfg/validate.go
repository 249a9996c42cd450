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

package cfg

import (
	"fmt"
)

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidPageCacheConfig(c *PageCacheConfig) error {
	if c.PageSizeBytes <= 0 || c.PageSizeBytes&(c.PageSizeBytes-1) != 0 {
		return fmt.Errorf("page-size-bytes must be a positive power of two, got %d", c.PageSizeBytes)
	}
	if c.CapacityPages <= 0 {
		return fmt.Errorf("capacity-pages must be positive, got %d", c.CapacityPages)
	}
	if c.PoolPagesPerStream < 0 {
		return fmt.Errorf("pool-pages-per-stream can't be negative, got %d", c.PoolPagesPerStream)
	}
	if c.GlobalPagesLimit < 0 {
		return fmt.Errorf("global-pages-limit can't be negative, got %d", c.GlobalPagesLimit)
	}
	return nil
}

func isValidReadAheadConfig(c *ReadAheadConfig) error {
	if c.MaxWindowPages < 0 {
		return fmt.Errorf("max-window-pages can't be negative, got %d", c.MaxWindowPages)
	}
	return nil
}

func isValidWorkersConfig(c *WorkersConfig) error {
	if c.PriorityWorkers <= 0 || c.NormalWorkers <= 0 {
		return fmt.Errorf("priority-workers and normal-workers must both be positive, got %d and %d", c.PriorityWorkers, c.NormalWorkers)
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}

	if err = isValidPageCacheConfig(&config.PageCache); err != nil {
		return fmt.Errorf("error parsing page-cache config: %w", err)
	}

	if err = isValidReadAheadConfig(&config.ReadAhead); err != nil {
		return fmt.Errorf("error parsing read-ahead config: %w", err)
	}

	if err = isValidWorkersConfig(&config.Workers); err != nil {
		return fmt.Errorf("error parsing workers config: %w", err)
	}

	return nil
}
