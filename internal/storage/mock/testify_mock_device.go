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

package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/cachefs/pagecache/internal/page"
)

// TestifyMockDevice is a mock storage device for unit tests.
type TestifyMockDevice struct {
	mock.Mock
}

func (m *TestifyMockDevice) ReadOne(ctx context.Context, stream uuid.UUID, p *page.Page) error {
	args := m.Called(ctx, stream, p)
	return args.Error(0)
}

func (m *TestifyMockDevice) ReadBatch(ctx context.Context, stream uuid.UUID, pages []*page.Page) error {
	args := m.Called(ctx, stream, pages)
	return args.Error(0)
}

func (m *TestifyMockDevice) IsCongested() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *TestifyMockDevice) KickPendingIO(stream uuid.UUID) {
	m.Called(stream)
}

// TestifyMockSingleReadDevice mocks a device without batch capability, for
// exercising the capability-degrading adapter.
type TestifyMockSingleReadDevice struct {
	mock.Mock
}

func (m *TestifyMockSingleReadDevice) ReadOne(ctx context.Context, stream uuid.UUID, p *page.Page) error {
	args := m.Called(ctx, stream, p)
	return args.Error(0)
}

func (m *TestifyMockSingleReadDevice) IsCongested() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *TestifyMockSingleReadDevice) KickPendingIO(stream uuid.UUID) {
	m.Called(stream)
}
