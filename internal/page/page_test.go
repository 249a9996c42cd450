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
)

func TestNewPage(t *testing.T) {
	p, err := New(4096)

	require.NoError(t, err)
	assert.Equal(t, int64(4096), p.Size())
	assert.Equal(t, int64(-1), p.Index())
	assert.False(t, p.Readahead())
	assert.False(t, p.Uptodate())
	assert.False(t, p.Writeback())
}

func TestNewPageInvalidSize(t *testing.T) {
	for _, size := range []int64{0, -1} {
		p, err := New(size)

		assert.Error(t, err)
		assert.Nil(t, p)
	}
}

func TestPageFlagsAreIndependent(t *testing.T) {
	p, err := New(512)
	require.NoError(t, err)

	p.SetReadahead()
	p.SetWriteback()

	assert.True(t, p.Readahead())
	assert.True(t, p.Writeback())
	assert.False(t, p.Uptodate())

	p.ClearReadahead()

	assert.False(t, p.Readahead())
	assert.True(t, p.Writeback())
}

func TestPageReadyCompletedMarksUptodate(t *testing.T) {
	p, err := New(512)
	require.NoError(t, err)

	p.Ready(ReadCompleted)

	assert.True(t, p.Uptodate())
	assert.Equal(t, ReadCompleted, <-p.NotificationChannel())
}

func TestPageReadyFailedDoesNotMarkUptodate(t *testing.T) {
	p, err := New(512)
	require.NoError(t, err)

	p.Ready(ReadFailed)

	assert.False(t, p.Uptodate())
	assert.Equal(t, ReadFailed, <-p.NotificationChannel())
}

func TestPageReadyNeverBlocks(t *testing.T) {
	p, err := New(512)
	require.NoError(t, err)

	// Nobody is draining the channel; the second call must not block.
	p.Ready(ReadCompleted)
	p.Ready(ReadCompleted)
}

func TestPageReuseResetsState(t *testing.T) {
	p, err := New(512)
	require.NoError(t, err)
	p.SetIndex(42)
	p.SetReadahead()
	p.Ready(ReadCompleted)

	p.Reuse()

	assert.Equal(t, int64(-1), p.Index())
	assert.False(t, p.Readahead())
	assert.False(t, p.Uptodate())
	select {
	case <-p.NotificationChannel():
		t.Fatal("notification channel should be drained after Reuse")
	default:
	}
}
