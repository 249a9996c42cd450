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

// Package storage defines the collaborator that moves page data from the
// backing device. The read-ahead engine only decides what to request; all
// actual I/O happens behind these interfaces.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/cachefs/pagecache/internal/page"
)

// Device services page reads one at a time.
type Device interface {
	// ReadOne asynchronously reads the page tagged by p.Index() for the
	// given stream. Completion is signalled through p.Ready.
	ReadOne(ctx context.Context, stream uuid.UUID, p *page.Page) error

	// IsCongested reports the device's back-pressure signal. Speculative
	// reads are deferred while it is set.
	IsCongested() bool

	// KickPendingIO flushes any pending-but-unsubmitted I/O for the stream.
	KickPendingIO(stream uuid.UUID)
}

// BatchDevice additionally services multi-page reads in one call.
type BatchDevice interface {
	Device

	// ReadBatch asynchronously reads every page in pages. Pages already
	// handed over before an error are still serviced; the first error is
	// returned.
	ReadBatch(ctx context.Context, stream uuid.UUID, pages []*page.Page) error
}

// AsBatchDevice upgrades a Device to a BatchDevice, choosing the capability
// once per collaborator instance: devices that natively support batched
// reads are used as-is, everything else gets a per-page loop.
func AsBatchDevice(d Device) BatchDevice {
	if bd, ok := d.(BatchDevice); ok {
		return bd
	}
	return &singleReadAdapter{Device: d}
}

// singleReadAdapter degrades ReadBatch to a ReadOne loop.
type singleReadAdapter struct {
	Device
}

func (a *singleReadAdapter) ReadBatch(ctx context.Context, stream uuid.UUID, pages []*page.Page) error {
	for _, p := range pages {
		if err := a.ReadOne(ctx, stream, p); err != nil {
			return err
		}
	}
	return nil
}
