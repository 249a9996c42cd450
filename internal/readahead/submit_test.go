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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/context"
	"golang.org/x/sync/semaphore"

	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/internal/pagecache"
	storagemock "github.com/cachefs/pagecache/internal/storage/mock"
)

type SubmitTest struct {
	suite.Suite
	device  *storagemock.TestifyMockDevice
	index   pagecache.PresenceIndex
	pool    *page.Pool
	stream  *Stream
	batches [][]*page.Page
}

func TestSubmitTestSuite(t *testing.T) {
	suite.Run(t, new(SubmitTest))
}

func (t *SubmitTest) SetupTest() {
	t.setup(8192, 4096*testPageSize)
}

// setup builds a stream over a file of fileSize bytes whose pool can hold
// poolPages pages.
func (t *SubmitTest) setup(poolPages, fileSize int64) {
	var err error
	t.device = new(storagemock.TestifyMockDevice)
	t.index, err = pagecache.NewLRUIndex(16384, nil)
	require.NoError(t.T(), err)
	t.pool, err = page.NewPool(testPageSize, poolPages, semaphore.NewWeighted(poolPages))
	require.NoError(t.T(), err)
	t.batches = nil
	t.stream, err = NewStream(context.Background(), StreamOptions{
		FileSize:       fileSize,
		PageSize:       testPageSize,
		MaxWindowPages: testMaxWindow,
		Index:          t.index,
		Pool:           t.pool,
		Device:         t.device,
	})
	require.NoError(t.T(), err)
}

// expectReadBatch arms the device mock and records every submitted batch.
func (t *SubmitTest) expectReadBatch(err error) {
	t.device.On("ReadBatch", mock.Anything, t.stream.ID(), mock.Anything).
		Run(func(args mock.Arguments) {
			t.batches = append(t.batches, args.Get(2).([]*page.Page))
		}).
		Return(err)
}

func (t *SubmitTest) batchIndices(batch []*page.Page) []int64 {
	indices := make([]int64, 0, len(batch))
	for _, p := range batch {
		indices = append(indices, p.Index())
	}
	return indices
}

func (t *SubmitTest) TestSubmitClipsWindowAtEndOfFile() {
	t.setup(8192, 10*testPageSize) // last valid page index is 9
	t.expectReadBatch(nil)

	queued, err := t.stream.submit(window{start: 6, size: 8, asyncSize: 4})

	t.NoError(err)
	t.Equal(int64(4), queued)
	require.Len(t.T(), t.batches, 1)
	t.Equal([]int64{6, 7, 8, 9}, t.batchIndices(t.batches[0]))
}

func (t *SubmitTest) TestSubmitPlacesExactlyOneMarker() {
	t.expectReadBatch(nil)

	queued, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	t.NoError(err)
	t.Equal(int64(8), queued)
	require.Len(t.T(), t.batches, 1)
	var marked []int64
	for _, p := range t.batches[0] {
		if p.Readahead() {
			marked = append(marked, p.Index())
		}
	}
	t.Equal([]int64{4}, marked)
}

func (t *SubmitTest) TestSubmitSkipsResidentPages() {
	for _, idx := range []int64{2, 3} {
		p, err := t.pool.TryGet()
		require.NoError(t.T(), err)
		p.SetIndex(idx)
		t.index.Insert(idx, p)
	}
	t.expectReadBatch(nil)

	queued, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	t.NoError(err)
	t.Equal(int64(6), queued)
	require.Len(t.T(), t.batches, 1)
	t.Equal([]int64{0, 1, 4, 5, 6, 7}, t.batchIndices(t.batches[0]))
}

func (t *SubmitTest) TestSubmitResubmitOfSameWindowQueuesNothing() {
	t.expectReadBatch(nil)

	first, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})
	require.NoError(t.T(), err)
	require.Equal(t.T(), int64(8), first)

	second, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	t.NoError(err)
	t.Zero(second)
	t.Len(t.batches, 1)
}

func (t *SubmitTest) TestSubmitPartialBatchOnPoolExhaustion() {
	t.setup(3, 4096*testPageSize)
	t.expectReadBatch(nil)

	queued, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	// Pool exhaustion truncates the batch; it is not an error.
	t.NoError(err)
	t.Equal(int64(3), queued)
	require.Len(t.T(), t.batches, 1)
	t.Equal([]int64{0, 1, 2}, t.batchIndices(t.batches[0]))
}

func (t *SubmitTest) TestSubmitEmptyWindowIsANoOp() {
	queued, err := t.stream.submit(window{})

	t.NoError(err)
	t.Zero(queued)
	t.device.AssertNotCalled(t.T(), "ReadBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (t *SubmitTest) TestSubmitZeroLengthFileIsANoOp() {
	t.setup(8192, 0)

	queued, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	t.NoError(err)
	t.Zero(queued)
	t.device.AssertNotCalled(t.T(), "ReadBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (t *SubmitTest) TestSubmitWrapsDeviceError() {
	t.expectReadBatch(errors.New("device gone"))

	queued, err := t.stream.submit(window{start: 0, size: 8, asyncSize: 4})

	t.Error(err)
	t.ErrorContains(err, "device gone")
	t.Equal(int64(8), queued)
}

func (t *SubmitTest) TestForceReadAheadChunksLargeRequests() {
	t.expectReadBatch(nil)

	// 1200 pages at 4 KiB against a 2 MiB pinning budget: 512, 512, 176.
	queued, err := t.stream.ForceReadAhead(0, 1200)

	t.NoError(err)
	t.Equal(int64(1200), queued)
	require.Len(t.T(), t.batches, 3)
	t.Len(t.batches[0], 512)
	t.Len(t.batches[1], 512)
	t.Len(t.batches[2], 176)
}

func (t *SubmitTest) TestForceReadAheadStopsAtFirstError() {
	t.expectReadBatch(errors.New("device gone"))

	queued, err := t.stream.ForceReadAhead(0, 1200)

	t.Error(err)
	t.Equal(int64(512), queued)
	t.Len(t.batches, 1)
}
