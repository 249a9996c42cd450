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

// Rationalize updates the config fields based on the values of other fields.
func Rationalize(c *Config) error {
	if c.PageCache.PoolPagesPerStream == 0 {
		// A stream never has more than two windows in flight, and the
		// post-processing step can double the first one.
		c.PageCache.PoolPagesPerStream = 4 * c.ReadAhead.MaxWindowPages
		if c.PageCache.PoolPagesPerStream == 0 {
			c.PageCache.PoolPagesPerStream = 32
		}
	}

	if c.PageCache.GlobalPagesLimit == 0 {
		c.PageCache.GlobalPagesLimit = c.PageCache.CapacityPages
	}

	if c.PageCache.PoolPagesPerStream > c.PageCache.GlobalPagesLimit {
		c.PageCache.PoolPagesPerStream = c.PageCache.GlobalPagesLimit
	}

	return nil
}
