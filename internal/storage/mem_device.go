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

package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cachefs/pagecache/common"
	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/internal/workerpool"
)

// MemDevice is a Device backed by an in-memory byte slice. Reads complete
// asynchronously on a worker pool, which reproduces the ordering hazards of
// a real block device closely enough for the simulator and the tests.
//
// A plugged MemDevice accumulates reads in per-stream pending queues instead
// of submitting them, until KickPendingIO is called. This models the
// pending-but-unsubmitted I/O condition that out-of-order completion on
// striped storage can leave behind.
type MemDevice struct {
	data []byte
	wp   workerpool.WorkerPool

	congested atomic.Bool
	plugged   atomic.Bool

	mu      sync.Mutex
	pending map[uuid.UUID]common.Queue[*readTask]

	// failIndices contains page indices whose reads fail synchronously.
	failIndices map[int64]bool
}

// NewMemDevice creates a device serving reads out of data on wp.
func NewMemDevice(data []byte, wp workerpool.WorkerPool) *MemDevice {
	return &MemDevice{
		data:        data,
		wp:          wp,
		pending:     make(map[uuid.UUID]common.Queue[*readTask]),
		failIndices: make(map[int64]bool),
	}
}

// SetCongested flips the device's back-pressure signal.
func (d *MemDevice) SetCongested(v bool) {
	d.congested.Store(v)
}

// SetPlugged controls whether reads are held in the pending queue until
// kicked.
func (d *MemDevice) SetPlugged(v bool) {
	d.plugged.Store(v)
}

// FailIndex makes every read of the page at index return an error.
func (d *MemDevice) FailIndex(index int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failIndices[index] = true
}

func (d *MemDevice) IsCongested() bool {
	return d.congested.Load()
}

func (d *MemDevice) ReadOne(ctx context.Context, stream uuid.UUID, p *page.Page) error {
	d.mu.Lock()
	if d.failIndices[p.Index()] {
		d.mu.Unlock()
		p.Ready(page.ReadFailed)
		return fmt.Errorf("read of page %d failed", p.Index())
	}
	t := &readTask{device: d, page: p}
	if d.plugged.Load() {
		q, ok := d.pending[stream]
		if !ok {
			q = common.NewLinkedListQueue[*readTask]()
			d.pending[stream] = q
		}
		q.Push(t)
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	d.wp.Schedule(false, t)
	return nil
}

func (d *MemDevice) ReadBatch(ctx context.Context, stream uuid.UUID, pages []*page.Page) error {
	for _, p := range pages {
		if err := d.ReadOne(ctx, stream, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *MemDevice) KickPendingIO(stream uuid.UUID) {
	d.mu.Lock()
	q, ok := d.pending[stream]
	if ok {
		delete(d.pending, stream)
	}
	d.mu.Unlock()
	if !ok {
		return
	}

	for !q.IsEmpty() {
		d.wp.Schedule(true, q.Pop())
	}
}

// PendingCount returns the number of reads held for the stream.
func (d *MemDevice) PendingCount(stream uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.pending[stream]; ok {
		return q.Len()
	}
	return 0
}

// readTask copies one page's worth of device data and signals completion.
type readTask struct {
	device *MemDevice
	page   *page.Page
}

func (t *readTask) Execute() {
	p := t.page
	off := p.Index() * p.Size()
	if off < 0 || off >= int64(len(t.device.data)) {
		p.Ready(page.ReadFailed)
		return
	}

	end := off + p.Size()
	if end > int64(len(t.device.data)) {
		end = int64(len(t.device.data))
	}
	copy(p.Data(), t.device.data[off:end])
	p.Ready(page.ReadCompleted)
}
