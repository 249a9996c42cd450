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
	"errors"
	"fmt"

	"github.com/cachefs/pagecache/internal/logger"
	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/metrics"
)

// maxForcedReadBytes bounds how much memory a forced read-ahead pins
// awaiting I/O at any instant.
const maxForcedReadBytes = 2 << 20

// submit turns a decided window into concrete page allocations and hands
// the batch to the storage device. Pages already resident are skipped;
// exactly one newly allocated page carries the read-ahead marker. The
// return value is the number of pages queued; zero means everything was
// already cached.
func (s *Stream) submit(w window) (int64, error) {
	if w.size <= 0 || s.fileSize <= 0 {
		return 0, nil
	}
	// Never request a page past end-of-file.
	endIndex := (s.fileSize - 1) / s.pageSize

	markerAt := int64(-1)
	if w.asyncSize > 0 {
		markerAt = w.markerIndex()
	}

	batch := make([]*page.Page, 0, max(0, min(w.size, endIndex-w.start+1)))
	for idx := w.start; idx < w.start+w.size; idx++ {
		if idx > endIndex {
			break
		}
		if s.index.Lookup(idx) {
			// Already resident; the marker is not (re)placed on resident
			// pages either.
			continue
		}

		p, err := s.pool.TryGet()
		if err != nil {
			if !errors.Is(err, page.ErrPageNotAvailable) {
				logger.Warnf("readahead %s: page allocation: %v", s.id, err)
			}
			// Allocation failure is non-fatal: submit the partial batch;
			// the consumer falls back to a direct read for the rest.
			break
		}
		p.SetIndex(idx)
		if idx == markerAt {
			p.SetReadahead()
		}
		s.index.Insert(idx, p)
		batch = append(batch, p)
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.device.ReadBatch(s.ctx, s.id, batch); err != nil {
		return int64(len(batch)), fmt.Errorf("submitting batch of %d pages at %d: %w", len(batch), w.start, err)
	}
	return int64(len(batch)), nil
}

// ForceReadAhead unconditionally reads count pages starting at index,
// bypassing the decision engine. It is used for streams explicitly declared
// purely sequential or purely random by the caller. The read is split into
// chunks so that at most maxForcedReadBytes are pinned awaiting I/O at any
// instant. On error it stops and returns the number of pages queued before
// the failure.
func (s *Stream) ForceReadAhead(index, count int64) (int64, error) {
	chunk := maxForcedReadBytes / s.pageSize
	if chunk < 1 {
		chunk = 1
	}

	var queued int64
	for count > 0 {
		n := min(count, chunk)
		q, err := s.submit(window{start: index, size: n})
		queued += q
		if err != nil {
			s.metricHandle.ReadAheadPagesQueuedCount(queued, metrics.TriggerForced)
			return queued, err
		}
		index += n
		count -= n
	}
	s.metricHandle.ReadAheadPagesQueuedCount(queued, metrics.TriggerForced)
	return queued, nil
}
