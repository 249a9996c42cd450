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
	"github.com/cachefs/pagecache/internal/logger"
	"github.com/cachefs/pagecache/metrics"
)

// decide runs the on-demand read-ahead policy for a read of reqCount pages
// at page index. hitMarker is true when the read consumed the marker page.
//
// The second return value is false when no prefetch should happen: the
// caller services the request directly, and the stream state is left
// untouched. That is the designed response to detected randomness, not an
// error.
func (s *Stream) decide(index, reqCount int64, hitMarker bool) (window, bool) {
	max := s.effectiveMax()
	if max <= 0 {
		return s.noWindow()
	}
	ra := &s.state

	// Start of file: the beginning of a fresh sequential stream.
	if index == 0 {
		return s.commit(s.merge(initialWindow(index, reqCount, max), index, max), index, reqCount, metrics.DecisionInitial)
	}

	// Reading at the marker or just past the window end: the stream is
	// consuming the previous window on schedule. Slide forward and grow.
	if index == ra.Start+ra.Size-ra.AsyncSize || index == ra.Start+ra.Size {
		w := window{start: ra.Start + ra.Size}
		w.size = grownSize(ra.Size, max)
		w.asyncSize = w.size
		return s.commit(w, index, reqCount, metrics.DecisionContinuation)
	}

	// A marker hit that the window does not explain: interleaved streams
	// have stomped on the shared state. Re-anchor the window on the first
	// uncached page after the request, or give up if everything within
	// reach is already cached.
	if hitMarker {
		start, ok := s.index.NextAbsent(index+1, max)
		if !ok {
			return s.noWindow()
		}
		w := window{start: start}
		w.size = grownSize(start-index+reqCount, max)
		w.asyncSize = w.size
		return s.commit(s.merge(w, index, max), index, reqCount, metrics.DecisionMarkerRecovery)
	}

	// A single request larger than the cap already saturates the device:
	// start a fresh window sized by the request itself.
	if reqCount > max {
		return s.commit(s.merge(initialWindow(index, reqCount, max), index, max), index, reqCount, metrics.DecisionOversized)
	}

	// Sequentially adjacent to the previous access, but the window has
	// lapsed: restart as a fresh sequential stream.
	prevIndex := ra.PrevPos / s.pageSize
	if d := index - prevIndex; d >= 0 && d <= 1 {
		return s.commit(s.merge(initialWindow(index, reqCount, max), index, max), index, reqCount, metrics.DecisionAdjacent)
	}

	// Fall back to the cache history for sequential evidence.
	if run := s.historyRunLength(index, max); run > 0 {
		if run >= index {
			// The run spans back to the start of the file; assume at least
			// as much again lies ahead.
			run *= 2
		}
		w := window{start: index}
		w.size = initialSize(run+reqCount, max)
		w.asyncSize = w.size
		return s.commit(s.merge(w, index, max), index, reqCount, metrics.DecisionContext)
	}

	// An isolated random read: read exactly what was requested, remember
	// nothing.
	return s.noWindow()
}

// initialWindow sizes a fresh window for the first read of a sequential
// stream.
func initialWindow(index, reqCount, max int64) window {
	w := window{start: index}
	w.size = initialSize(reqCount, max)
	w.asyncSize = w.size
	return w
}

// merge folds one extra growth step into a window that starts exactly at
// the triggering read with no portion already delivered, so the very first
// prefetch already looks two steps ahead.
func (s *Stream) merge(w window, index, max int64) window {
	if index == w.start && w.size == w.asyncSize {
		w.asyncSize = grownSize(w.size, max)
		w.size += w.asyncSize
	}
	return w
}

// commit writes the decided window into the stream state and records the
// access position.
func (s *Stream) commit(w window, index, reqCount int64, outcome string) (window, bool) {
	ra := &s.state
	ra.Start = w.start
	ra.Size = w.size
	ra.AsyncSize = w.asyncSize
	ra.PrevPos = (index+reqCount)*s.pageSize - 1
	ra.assertValid()

	s.metricHandle.ReadAheadDecisionCount(1, outcome)
	s.metricHandle.ReadAheadWindowSize(s.ctx, w.size)
	logger.Tracef("readahead %s: %s window [%d, +%d) async %d", s.id, outcome, w.start, w.size, w.asyncSize)
	return w, true
}

func (s *Stream) noWindow() (window, bool) {
	s.metricHandle.ReadAheadDecisionCount(1, metrics.DecisionNone)
	return window{}, false
}
