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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

func TestNewPoolInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		pageSize int64
		maxPages int64
	}{
		{name: "zero page size", pageSize: 0, maxPages: 4},
		{name: "negative page size", pageSize: -1, maxPages: 4},
		{name: "zero max pages", pageSize: 4096, maxPages: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := NewPool(tc.pageSize, tc.maxPages, semaphore.NewWeighted(10))

			assert.Error(t, err)
			assert.Nil(t, pool)
		})
	}
}

func TestPoolTryGetAllocatesUpToMax(t *testing.T) {
	pool, err := NewPool(512, 2, semaphore.NewWeighted(10))
	require.NoError(t, err)

	p1, err := pool.TryGet()
	require.NoError(t, err)
	p2, err := pool.TryGet()
	require.NoError(t, err)
	_, err = pool.TryGet()

	assert.ErrorIs(t, err, ErrPageNotAvailable)
	assert.NotSame(t, p1, p2)
}

func TestPoolTryGetHonoursGlobalBudget(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	pool, err := NewPool(512, 4, sem)
	require.NoError(t, err)

	_, err = pool.TryGet()
	require.NoError(t, err)
	_, err = pool.TryGet()

	assert.ErrorIs(t, err, ErrPageNotAvailable)
}

func TestPoolReleaseRecyclesPage(t *testing.T) {
	pool, err := NewPool(512, 1, semaphore.NewWeighted(1))
	require.NoError(t, err)
	p, err := pool.TryGet()
	require.NoError(t, err)
	p.SetIndex(7)
	p.SetReadahead()

	pool.Release(p)
	recycled, err := pool.TryGet()

	require.NoError(t, err)
	assert.Same(t, p, recycled)
	assert.Equal(t, int64(-1), recycled.Index(), "recycled page should be reset")
	assert.False(t, recycled.Readahead())
}

func TestPoolClearReleasesGlobalBudget(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	pool, err := NewPool(512, 1, sem)
	require.NoError(t, err)
	p, err := pool.TryGet()
	require.NoError(t, err)
	pool.Release(p)

	pool.Clear()

	assert.True(t, sem.TryAcquire(1), "global budget should be fully released")
	sem.Release(1)
}
