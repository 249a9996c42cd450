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

package memory

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// SysinfoOracle derives the reclaimable-page figure from the host's virtual
// memory counters: free memory plus inactive (cached but not recently used)
// memory.
type SysinfoOracle struct{}

func NewSysinfoOracle() *SysinfoOracle {
	return &SysinfoOracle{}
}

func (o *SysinfoOracle) ReclaimablePages(pageSize int64) (int64, error) {
	if pageSize <= 0 {
		return 0, fmt.Errorf("invalid page size: %d", pageSize)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("reading virtual memory stats: %w", err)
	}
	reclaimable := vm.Free + vm.Inactive
	return int64(reclaimable) / pageSize, nil
}
