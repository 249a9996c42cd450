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

package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/internal/workerpool"
)

const testPageSize = 512

type MemDeviceTest struct {
	suite.Suite
	ctx    context.Context
	stream uuid.UUID
	wp     workerpool.WorkerPool
	data   []byte
	device *MemDevice
}

func TestMemDeviceTestSuite(t *testing.T) {
	suite.Run(t, new(MemDeviceTest))
}

func (t *MemDeviceTest) SetupTest() {
	t.ctx = context.Background()
	t.stream = uuid.New()
	wp, err := workerpool.NewStaticWorkerPool(1, 2)
	require.NoError(t.T(), err)
	wp.Start()
	t.wp = wp
	t.data = bytes.Repeat([]byte{0xAB}, 4*testPageSize)
	t.device = NewMemDevice(t.data, t.wp)
}

func (t *MemDeviceTest) TearDownTest() {
	t.wp.Stop()
}

func (t *MemDeviceTest) newPage(index int64) *page.Page {
	p, err := page.New(testPageSize)
	require.NoError(t.T(), err)
	p.SetIndex(index)
	return p
}

func (t *MemDeviceTest) TestReadOneCompletesPage() {
	p := t.newPage(1)

	err := t.device.ReadOne(t.ctx, t.stream, p)

	require.NoError(t.T(), err)
	select {
	case status := <-p.NotificationChannel():
		assert.Equal(t.T(), page.ReadCompleted, status)
	case <-time.After(time.Second):
		t.T().Fatal("read did not complete in time")
	}
	assert.True(t.T(), p.Uptodate())
	assert.Equal(t.T(), t.data[testPageSize:2*testPageSize], p.Data())
}

func (t *MemDeviceTest) TestReadOneBeyondDeviceFails() {
	p := t.newPage(100)

	err := t.device.ReadOne(t.ctx, t.stream, p)

	require.NoError(t.T(), err)
	select {
	case status := <-p.NotificationChannel():
		assert.Equal(t.T(), page.ReadFailed, status)
	case <-time.After(time.Second):
		t.T().Fatal("read did not complete in time")
	}
	assert.False(t.T(), p.Uptodate())
}

func (t *MemDeviceTest) TestFailIndexReturnsSynchronousError() {
	t.device.FailIndex(2)
	p := t.newPage(2)

	err := t.device.ReadOne(t.ctx, t.stream, p)

	assert.Error(t.T(), err)
	assert.False(t.T(), p.Uptodate())
}

func (t *MemDeviceTest) TestPluggedReadsWaitForKick() {
	t.device.SetPlugged(true)
	p := t.newPage(0)

	require.NoError(t.T(), t.device.ReadOne(t.ctx, t.stream, p))

	assert.Equal(t.T(), 1, t.device.PendingCount(t.stream))
	select {
	case <-p.NotificationChannel():
		t.T().Fatal("plugged read should not complete before kick")
	case <-time.After(50 * time.Millisecond):
	}

	t.device.KickPendingIO(t.stream)

	select {
	case status := <-p.NotificationChannel():
		assert.Equal(t.T(), page.ReadCompleted, status)
	case <-time.After(time.Second):
		t.T().Fatal("kicked read did not complete in time")
	}
	assert.Equal(t.T(), 0, t.device.PendingCount(t.stream))
}

func (t *MemDeviceTest) TestKickPendingIOOnlyDrainsGivenStream() {
	t.device.SetPlugged(true)
	other := uuid.New()
	require.NoError(t.T(), t.device.ReadOne(t.ctx, t.stream, t.newPage(0)))
	require.NoError(t.T(), t.device.ReadOne(t.ctx, other, t.newPage(1)))

	t.device.KickPendingIO(t.stream)

	assert.Equal(t.T(), 0, t.device.PendingCount(t.stream))
	assert.Equal(t.T(), 1, t.device.PendingCount(other))
}

func (t *MemDeviceTest) TestCongestionFlag() {
	assert.False(t.T(), t.device.IsCongested())

	t.device.SetCongested(true)

	assert.True(t.T(), t.device.IsCongested())
}

func TestAsBatchDevicePassesThroughNativeBatcher(t *testing.T) {
	wp, err := workerpool.NewStaticWorkerPool(1, 1)
	require.NoError(t, err)
	device := NewMemDevice(nil, wp)

	got := AsBatchDevice(device)

	assert.Same(t, device, got.(*MemDevice))
}

type singleDevice struct {
	reads []int64
	err   error
}

func (d *singleDevice) ReadOne(ctx context.Context, stream uuid.UUID, p *page.Page) error {
	if d.err != nil {
		return d.err
	}
	d.reads = append(d.reads, p.Index())
	return nil
}

func (d *singleDevice) IsCongested() bool { return false }

func (d *singleDevice) KickPendingIO(stream uuid.UUID) {}

func TestAsBatchDeviceDegradesToReadOneLoop(t *testing.T) {
	d := &singleDevice{}
	bd := AsBatchDevice(d)
	pages := make([]*page.Page, 0, 3)
	for i := int64(0); i < 3; i++ {
		p, err := page.New(testPageSize)
		require.NoError(t, err)
		p.SetIndex(i)
		pages = append(pages, p)
	}

	err := bd.ReadBatch(context.Background(), uuid.New(), pages)

	assert.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, d.reads)
}

func TestAsBatchDeviceLoopStopsAtFirstError(t *testing.T) {
	readErr := errors.New("bad sector")
	d := &singleDevice{err: readErr}
	bd := AsBatchDevice(d)
	p, err := page.New(testPageSize)
	require.NoError(t, err)

	err = bd.ReadBatch(context.Background(), uuid.New(), []*page.Page{p})

	assert.ErrorIs(t, err, readErr)
}
