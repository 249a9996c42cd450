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

package readahead

import (
	"math/bits"

	"github.com/cachefs/pagecache/internal/logger"
)

// Growth policy: small first requests get a disproportionately generous
// head start, growth is aggressive while the window is far from the cap and
// geometric once it approaches it. The divisors are tuning constants; the
// shape is what matters.
const (
	initialBoostDivisor    = 32 // requests up to max/32 are quadrupled
	initialDoubleDivisor   = 4  // requests up to max/4 are doubled
	growthQuadrupleDivisor = 16 // windows below max/16 quadruple, others double
)

// roundUpPowerOfTwo returns the smallest power of two >= n.
func roundUpPowerOfTwo(n int64) int64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}

// initialSize computes the first window size for a stream from the number
// of pages requested.
func initialSize(requested, max int64) int64 {
	size := roundUpPowerOfTwo(requested)
	if size <= max/initialBoostDivisor {
		size *= 4
	} else if size <= max/initialDoubleDivisor {
		size *= 2
	} else {
		size = max
	}
	return min(size, max)
}

// grownSize computes the next window size from the current one.
func grownSize(current, max int64) int64 {
	size := current
	if size < max/growthQuadrupleDivisor {
		size *= 4
	} else {
		size *= 2
	}
	return min(size, max)
}

// effectiveMax caps the configured window so that speculative reads never
// pin more than half of presently reclaimable memory, regardless of
// configuration.
func (s *Stream) effectiveMax() int64 {
	max := s.state.MaxWindow
	if s.oracle == nil {
		return max
	}

	reclaimable, err := s.oracle.ReclaimablePages(s.pageSize)
	if err != nil {
		logger.Warnf("readahead %s: memory oracle unavailable, using configured cap: %v", s.id, err)
		return max
	}
	return min(max, reclaimable/2)
}
