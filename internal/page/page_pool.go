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
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ErrPageNotAvailable is returned by TryGet when no page can be allocated
// without blocking, either because the per-pool limit is reached or because
// the global page budget is exhausted.
var ErrPageNotAvailable = errors.New("no page available for allocation")

// Pool hands out fixed-size pages for read-ahead, bounding both the
// per-stream and the global number of pages pinned awaiting I/O.
type Pool struct {
	// Channel holding free pages ready for reuse.
	freePagesCh chan *Page

	// Size of each page this pool holds.
	pageSize int64

	// Max number of pages this Pool can create.
	maxPages int64

	// Total number of pages created so far.
	totalPages int64

	// Semaphore limiting the total number of pages created across all
	// streams.
	globalMaxPagesSem *semaphore.Weighted
}

// NewPool creates a Pool based on the given configuration.
func NewPool(pageSize, maxPages int64, globalMaxPagesSem *semaphore.Weighted) (*Pool, error) {
	if pageSize <= 0 || maxPages <= 0 {
		return nil, fmt.Errorf("invalid configuration provided for page pool, pageSize: %d, maxPages: %d", pageSize, maxPages)
	}

	return &Pool{
		freePagesCh:       make(chan *Page, maxPages),
		pageSize:          pageSize,
		maxPages:          maxPages,
		globalMaxPagesSem: globalMaxPagesSem,
	}, nil
}

// TryGet returns a free or freshly allocated page without blocking. It
// returns ErrPageNotAvailable when the pool is exhausted; callers on the
// read-ahead path treat that as "stop growing the batch", not as a failure.
func (p *Pool) TryGet() (*Page, error) {
	select {
	case pg := <-p.freePagesCh:
		pg.Reuse()
		return pg, nil
	default:
	}

	if !p.canAllocatePage() {
		return nil, ErrPageNotAvailable
	}

	pg, err := New(p.pageSize)
	if err != nil {
		p.globalMaxPagesSem.Release(1)
		return nil, err
	}
	p.totalPages++
	return pg, nil
}

// canAllocatePage checks if a new page can be allocated. On success one unit
// of the global semaphore has been acquired for the page.
func (p *Pool) canAllocatePage() bool {
	if p.totalPages >= p.maxPages {
		return false
	}
	return p.globalMaxPagesSem.TryAcquire(1)
}

// Release puts a page back on the free channel, or deallocates it when the
// channel is full.
func (p *Pool) Release(pg *Page) {
	select {
	case p.freePagesCh <- pg:
	default:
		p.totalPages--
		p.globalMaxPagesSem.Release(1)
	}
}

// PageSize returns the page size used by the pool.
func (p *Pool) PageSize() int64 {
	return p.pageSize
}

// Clear drops every free page and releases its global budget.
func (p *Pool) Clear() {
	for {
		select {
		case <-p.freePagesCh:
			p.totalPages--
			p.globalMaxPagesSem.Release(1)
		default:
			return
		}
	}
}
