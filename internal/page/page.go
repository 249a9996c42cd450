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

package page

import (
	"fmt"
	"sync/atomic"
)

// Page flag bits. Flags live in a single atomic word so that concurrent,
// unsynchronized observers always see a structurally valid combination.
const (
	// flagReadahead marks the page whose consumption should trigger the next
	// round of read-ahead. Set only by the submission path, cleared only by
	// the async entry point.
	flagReadahead uint32 = 1 << iota

	// flagUptodate means the page's data has been fully read from storage.
	flagUptodate

	// flagWriteback means the page is being written back to storage.
	flagWriteback
)

// Page represents one cached page of a file: a fixed-size buffer tagged with
// the page index it holds.
type Page struct {
	buffer []byte
	index  int64
	flags  atomic.Uint32

	// notification receives the final status of the read servicing this page.
	notification chan int
}

// Status of a storage read servicing a page.
const (
	ReadCompleted int = iota + 1 // Read of this page is complete.
	ReadFailed                   // Read of this page has failed.
	ReadCancelled                // Read of this page has been cancelled.
)

// New allocates a page holding pageSize bytes.
func New(pageSize int64) (*Page, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size: %d", pageSize)
	}
	return &Page{
		buffer:       make([]byte, pageSize),
		index:        -1,
		notification: make(chan int, 1),
	}, nil
}

// Index returns the page index this page is tagged with, or -1 when the page
// is not associated with any file position.
func (p *Page) Index() int64 {
	return p.index
}

// SetIndex tags the page with a file page index.
func (p *Page) SetIndex(index int64) {
	p.index = index
}

// Data returns the page's buffer.
func (p *Page) Data() []byte {
	return p.buffer
}

// Size returns the page's capacity in bytes.
func (p *Page) Size() int64 {
	return int64(len(p.buffer))
}

// NotificationChannel returns a channel that receives the read status once
// the page is ready to consume.
func (p *Page) NotificationChannel() <-chan int {
	return p.notification
}

// Ready records the outcome of the read servicing this page and wakes any
// waiter. A ReadCompleted outcome also marks the page uptodate.
func (p *Page) Ready(val int) {
	if val == ReadCompleted {
		p.setFlag(flagUptodate)
	}
	select {
	case p.notification <- val:
	default:
		// Never block the storage completion path.
	}
}

// Reuse resets the page for a new allocation from the pool.
func (p *Page) Reuse() {
	p.index = -1
	p.flags.Store(0)
	p.notification = make(chan int, 1)
}

// Readahead reports whether the page carries the read-ahead marker.
func (p *Page) Readahead() bool {
	return p.hasFlag(flagReadahead)
}

// SetReadahead places the read-ahead marker on the page.
func (p *Page) SetReadahead() {
	p.setFlag(flagReadahead)
}

// ClearReadahead removes the read-ahead marker from the page.
func (p *Page) ClearReadahead() {
	p.clearFlag(flagReadahead)
}

// Uptodate reports whether the page's data has been fully read from storage.
func (p *Page) Uptodate() bool {
	return p.hasFlag(flagUptodate)
}

// Writeback reports whether the page is under active write-back.
func (p *Page) Writeback() bool {
	return p.hasFlag(flagWriteback)
}

// SetWriteback marks the page as under write-back.
func (p *Page) SetWriteback() {
	p.setFlag(flagWriteback)
}

// ClearWriteback clears the write-back mark.
func (p *Page) ClearWriteback() {
	p.clearFlag(flagWriteback)
}

func (p *Page) hasFlag(f uint32) bool {
	return p.flags.Load()&f != 0
}

func (p *Page) setFlag(f uint32) {
	for {
		old := p.flags.Load()
		if p.flags.CompareAndSwap(old, old|f) {
			return
		}
	}
}

func (p *Page) clearFlag(f uint32) {
	for {
		old := p.flags.Load()
		if p.flags.CompareAndSwap(old, old&^f) {
			return
		}
	}
}
