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

// Package memory reports how much memory the read-ahead engine may commit
// to speculative pages without causing reclaim pressure.
package memory

// Oracle reports the number of pages that are presently free or cheaply
// reclaimable. The read-ahead engine never prefetches more than half of
// this figure, regardless of configured window caps.
type Oracle interface {
	ReclaimablePages(pageSize int64) (int64, error)
}

// FixedOracle is an Oracle returning a constant figure. Used in tests and
// by the simulator.
type FixedOracle struct {
	Pages int64
}

func (o *FixedOracle) ReclaimablePages(pageSize int64) (int64, error) {
	return o.Pages, nil
}
