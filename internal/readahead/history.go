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

// historyRunLength measures how many contiguous pages immediately before
// index are already cached, scanning at most maxScan pages back.
//
// Zero means the preceding page is not cached: strong evidence of a random
// or cold access. A value equal to index means the run reaches the start of
// the file: strong evidence of a long sequential scan.
func (s *Stream) historyRunLength(index, maxScan int64) int64 {
	if index <= 0 {
		return 0
	}
	return s.index.PrevAbsentRun(index-1, maxScan)
}
