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

import "fmt"

// State is the read-ahead state of one open stream. It is owned by that
// stream's handle and mutated only while servicing its reads.
//
// State is deliberately not protected by a lock. Callers that share a
// handle across goroutines without their own serialization may observe
// stale or torn heuristic state; the worst outcome is a sub-optimal window,
// never a correctness violation, because the presence index is re-checked
// before any page is queued. Every field is a single machine word so no
// individual read is structurally invalid.
type State struct {
	// Start is the index of the first page in the most recently issued
	// window.
	Start int64

	// Size is the total number of pages in that window.
	Size int64

	// AsyncSize is the trailing sub-length of the window; the page at
	// Start+Size-AsyncSize carries the read-ahead marker.
	AsyncSize int64

	// MaxWindow is the configured ceiling on window size for this stream,
	// in pages. Zero disables read-ahead.
	MaxWindow int64

	// PrevPos is the byte offset of the last access serviced for this
	// stream, used to detect contiguity with the previous access.
	PrevPos int64
}

// assertValid panics when the window fields are inconsistent. Such a state
// indicates a bug in the decision engine, not a runtime condition.
func (s *State) assertValid() {
	if s.Size == 0 && s.AsyncSize == 0 {
		return
	}
	if s.Size > 0 && s.AsyncSize > 0 && s.AsyncSize <= s.Size {
		return
	}
	panic(fmt.Sprintf("readahead: invalid state: start=%d size=%d asyncSize=%d", s.Start, s.Size, s.AsyncSize))
}

// window is a decided prefetch range: the pages [start, start+size), of
// which the trailing asyncSize pages are reserved to trigger the next
// round.
type window struct {
	start     int64
	size      int64
	asyncSize int64
}

// markerIndex returns the page index that carries the read-ahead marker.
// Only meaningful when asyncSize > 0.
func (w window) markerIndex() int64 {
	return w.start + w.size - w.asyncSize
}
