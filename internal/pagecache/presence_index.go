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

// Package pagecache tracks which pages of a file are resident in cache.
// The presence index is the authoritative record of residency; read-ahead
// state is only a prediction hint layered on top of it.
package pagecache

import (
	"github.com/cachefs/pagecache/internal/page"
)

// PresenceIndex is a sparse set of page indices currently resident in
// cache. Implementations must be safe for concurrent use: the read-ahead
// path re-checks presence here before queuing any I/O, which is what makes
// races on the (unsynchronized) read-ahead state harmless.
type PresenceIndex interface {
	// Lookup reports whether the page at index is resident.
	Lookup(index int64) bool

	// Insert records a page as resident at index.
	Insert(index int64, p *page.Page)

	// NextAbsent returns the first index in [from, from+limit) that is not
	// resident. The second return value is false when every index in the
	// scan window is resident.
	NextAbsent(from, limit int64) (int64, bool)

	// PrevAbsentRun returns the number of contiguous resident pages at
	// indices before, before-1, ... until the first absent index, scanning
	// at most limit steps. A return of limit means the whole scan window is
	// resident.
	PrevAbsentRun(before, limit int64) int64
}
