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
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/net/context"

	"github.com/cachefs/pagecache/internal/logger"
	"github.com/cachefs/pagecache/internal/memory"
	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/internal/pagecache"
	"github.com/cachefs/pagecache/internal/storage"
	"github.com/cachefs/pagecache/metrics"
)

// AccessMode selects how a stream drives read-ahead.
type AccessMode int

const (
	// ModeHeuristic lets the decision engine size windows adaptively.
	ModeHeuristic AccessMode = iota

	// ModeForced bypasses the heuristics and reads exactly what the
	// caller asks for, chunked to bound pinned memory. Used when the
	// caller has declared the stream purely sequential or purely random.
	ModeForced
)

// StreamOptions carries everything needed to construct a Stream.
type StreamOptions struct {
	// FileSize is the length in bytes of the backing file.
	FileSize int64

	// PageSize is the cache page size in bytes.
	PageSize int64

	// MaxWindowPages caps the read-ahead window. Zero disables
	// read-ahead entirely.
	MaxWindowPages int64

	Mode AccessMode

	// Index is the authoritative record of page residency.
	Index pagecache.PresenceIndex

	// Pool supplies cache pages for speculative reads.
	Pool *page.Pool

	// Device performs the actual reads. A plain Device is adapted to
	// batch submission transparently.
	Device storage.Device

	// Oracle reports reclaimable memory; nil disables the memory clamp.
	Oracle memory.Oracle

	// MetricHandle defaults to a no-op implementation when nil.
	MetricHandle metrics.MetricHandle
}

// Stream is the per-open-file read-ahead driver. It owns the window state
// and turns individual page accesses into batched speculative reads.
//
// A Stream is not safe for concurrent use; serialize calls the way the
// surrounding file handle serializes reads.
type Stream struct {
	id       uuid.UUID
	fileSize int64
	pageSize int64
	mode     AccessMode

	index        pagecache.PresenceIndex
	pool         *page.Pool
	device       storage.BatchDevice
	oracle       memory.Oracle
	metricHandle metrics.MetricHandle

	state State

	ctx context.Context
}

// NewStream validates opts and returns a Stream ready for use.
func NewStream(ctx context.Context, opts StreamOptions) (*Stream, error) {
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("invalid page size: %d", opts.PageSize)
	}
	if opts.MaxWindowPages < 0 {
		return nil, fmt.Errorf("invalid max window: %d", opts.MaxWindowPages)
	}
	if opts.Index == nil {
		return nil, fmt.Errorf("presence index is required")
	}
	if opts.Pool == nil {
		return nil, fmt.Errorf("page pool is required")
	}
	if opts.Device == nil {
		return nil, fmt.Errorf("storage device is required")
	}
	mh := opts.MetricHandle
	if mh == nil {
		mh = metrics.NewNoopMetrics()
	}
	return &Stream{
		id:           uuid.New(),
		fileSize:     opts.FileSize,
		pageSize:     opts.PageSize,
		mode:         opts.Mode,
		index:        opts.Index,
		pool:         opts.Pool,
		device:       storage.AsBatchDevice(opts.Device),
		oracle:       opts.Oracle,
		metricHandle: mh,
		state:        State{MaxWindow: opts.MaxWindowPages},
		ctx:          ctx,
	}, nil
}

// ID returns the stream identifier used to tag device I/O.
func (s *Stream) ID() uuid.UUID {
	return s.id
}

// State returns a copy of the current window state.
func (s *Stream) State() State {
	return s.state
}

// SyncReadAhead is the miss path: the consumer needs the page at index
// right now and it is not cached. It always queues at least the requested
// pages (so the caller can block on them) and usually more. Returns the
// number of pages queued.
func (s *Stream) SyncReadAhead(index, reqCount int64) (int64, error) {
	if s.state.MaxWindow == 0 {
		return 0, nil
	}
	if s.mode == ModeForced {
		return s.ForceReadAhead(index, reqCount)
	}

	w, ok := s.decide(index, reqCount, false)
	if !ok {
		// Random access: read exactly what was asked for, and nothing
		// speculative, so the window state is not polluted.
		w = window{start: index, size: reqCount}
	}
	queued, err := s.submit(w)
	if err != nil {
		// The requested pages are in the index either way; the consumer
		// blocking on them will surface the device error.
		logger.Tracef("readahead %s: sync submit: %v", s.id, err)
	}
	s.metricHandle.ReadAheadPagesQueuedCount(queued, metrics.TriggerSync)
	return queued, nil
}

// AsyncReadAhead is the hit path: the consumer touched a cached page that
// carries the read-ahead marker, meaning the pipeline is running low.
// It extends the pipeline ahead of the reader without ever blocking.
func (s *Stream) AsyncReadAhead(p *page.Page, index, reqCount int64) (int64, error) {
	if s.state.MaxWindow == 0 {
		return 0, nil
	}
	if p.Writeback() {
		// The page is being flushed; starting more I/O now would fight
		// the flusher for the device.
		return 0, nil
	}
	p.ClearReadahead()
	if s.device.IsCongested() {
		s.metricHandle.ReadAheadCongestionDeferralCount(1)
		return 0, nil
	}

	var queued int64
	if w, ok := s.decide(index, reqCount, true); ok {
		var err error
		queued, err = s.submit(w)
		if err != nil {
			logger.Tracef("readahead %s: async submit: %v", s.id, err)
		}
		s.metricHandle.ReadAheadPagesQueuedCount(queued, metrics.TriggerAsync)
	}

	if p.Uptodate() {
		// The trigger page has data already; make sure any pending I/O
		// behind it actually reaches the device.
		s.device.KickPendingIO(s.id)
	}
	return queued, nil
}
