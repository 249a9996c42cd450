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

package metrics

import (
	"context"
)

// Decision outcomes recorded against ReadAheadDecisionCount.
const (
	DecisionInitial        = "initial"
	DecisionContinuation   = "continuation"
	DecisionMarkerRecovery = "marker_recovery"
	DecisionOversized      = "oversized"
	DecisionAdjacent       = "adjacent"
	DecisionContext        = "context"
	DecisionNone           = "none"
)

// Triggers recorded against ReadAheadPagesQueuedCount.
const (
	TriggerSync   = "sync"
	TriggerAsync  = "async"
	TriggerForced = "forced"
)

// MetricHandle records read-ahead engine metrics. Implementations must be
// cheap enough to call on the per-read hot path.
type MetricHandle interface {
	// ReadAheadDecisionCount counts decision-engine outcomes by rule.
	ReadAheadDecisionCount(inc int64, outcome string)

	// ReadAheadPagesQueuedCount counts pages handed to the storage device,
	// by entry point.
	ReadAheadPagesQueuedCount(inc int64, trigger string)

	// ReadAheadWindowSize records the size in pages of a decided window.
	ReadAheadWindowSize(ctx context.Context, size int64)

	// ReadAheadCongestionDeferralCount counts async entries skipped due to
	// device back-pressure.
	ReadAheadCongestionDeferralCount(inc int64)
}
