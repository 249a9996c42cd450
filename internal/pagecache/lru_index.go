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

package pagecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cachefs/pagecache/internal/page"
)

// lruIndex is a PresenceIndex backed by an LRU cache. Pages fall out of the
// index under capacity pressure; the eviction hook lets the owner return
// evicted pages to their pool.
type lruIndex struct {
	cache *lru.Cache[int64, *page.Page]
}

// NewLRUIndex creates a presence index that holds at most capacity pages.
// onEvict, if non-nil, is invoked for every page dropped from the index.
func NewLRUIndex(capacity int, onEvict func(index int64, p *page.Page)) (PresenceIndex, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid presence index capacity: %d", capacity)
	}

	cache, err := lru.NewWithEvict[int64, *page.Page](capacity, onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &lruIndex{cache: cache}, nil
}

func (x *lruIndex) Lookup(index int64) bool {
	return x.cache.Contains(index)
}

// Get returns the resident page at index, if any. Not part of
// PresenceIndex; the simulator uses it to reach marker pages.
func (x *lruIndex) Get(index int64) (*page.Page, bool) {
	return x.cache.Get(index)
}

func (x *lruIndex) Insert(index int64, p *page.Page) {
	x.cache.Add(index, p)
}

func (x *lruIndex) NextAbsent(from, limit int64) (int64, bool) {
	for i := from; i < from+limit; i++ {
		if !x.cache.Contains(i) {
			return i, true
		}
	}
	return 0, false
}

func (x *lruIndex) PrevAbsentRun(before, limit int64) int64 {
	var run int64
	for i := before; run < limit && i >= 0; i-- {
		if !x.cache.Contains(i) {
			break
		}
		run++
	}
	return run
}
