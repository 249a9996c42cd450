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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/cachefs/pagecache/internal/page"
)

type LRUIndexTest struct {
	suite.Suite
	index PresenceIndex
}

func TestLRUIndexTestSuite(t *testing.T) {
	suite.Run(t, new(LRUIndexTest))
}

func (t *LRUIndexTest) SetupTest() {
	var err error
	t.index, err = NewLRUIndex(64, nil)
	require.NoError(t.T(), err)
}

func (t *LRUIndexTest) insert(indices ...int64) {
	for _, i := range indices {
		p, err := page.New(512)
		require.NoError(t.T(), err)
		p.SetIndex(i)
		t.index.Insert(i, p)
	}
}

func (t *LRUIndexTest) TestNewLRUIndexInvalidCapacity() {
	index, err := NewLRUIndex(0, nil)

	assert.Error(t.T(), err)
	assert.Nil(t.T(), index)
}

func (t *LRUIndexTest) TestLookup() {
	t.insert(3)

	assert.True(t.T(), t.index.Lookup(3))
	assert.False(t.T(), t.index.Lookup(4))
}

func (t *LRUIndexTest) TestNextAbsent() {
	t.insert(5, 6, 8)

	testCases := []struct {
		name     string
		from     int64
		limit    int64
		expected int64
		found    bool
	}{
		{name: "hole after run", from: 5, limit: 10, expected: 7, found: true},
		{name: "immediately absent", from: 9, limit: 10, expected: 9, found: true},
		{name: "all present in window", from: 5, limit: 2, found: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func() {
			got, ok := t.index.NextAbsent(tc.from, tc.limit)

			assert.Equal(t.T(), tc.found, ok)
			if tc.found {
				assert.Equal(t.T(), tc.expected, got)
			}
		})
	}
}

func (t *LRUIndexTest) TestPrevAbsentRun() {
	t.insert(2, 3, 4)

	testCases := []struct {
		name     string
		before   int64
		limit    int64
		expected int64
	}{
		{name: "full run", before: 4, limit: 10, expected: 3},
		{name: "capped by limit", before: 4, limit: 2, expected: 2},
		{name: "immediately absent", before: 5, limit: 10, expected: 0},
		{name: "stops at file start", before: 0, limit: 10, expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func() {
			assert.Equal(t.T(), tc.expected, t.index.PrevAbsentRun(tc.before, tc.limit))
		})
	}
}

func (t *LRUIndexTest) TestPrevAbsentRunReachesFileStart() {
	t.insert(0, 1, 2)

	// Scanning back from index 2 hits the start of the file after 3 pages.
	assert.Equal(t.T(), int64(3), t.index.PrevAbsentRun(2, 10))
}

func (t *LRUIndexTest) TestEvictionInvokesHook() {
	evicted := make(map[int64]*page.Page)
	index, err := NewLRUIndex(2, func(i int64, p *page.Page) { evicted[i] = p })
	require.NoError(t.T(), err)
	for i := int64(0); i < 3; i++ {
		p, perr := page.New(512)
		require.NoError(t.T(), perr)
		index.Insert(i, p)
	}

	assert.False(t.T(), index.Lookup(0), "oldest entry should be evicted")
	assert.Contains(t.T(), evicted, int64(0))
	assert.Len(t.T(), evicted, 1)
}
