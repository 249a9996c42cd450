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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute sets are pre-built so the hot path never allocates.
var (
	decisionInitialAttrSet        = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionInitial)))
	decisionContinuationAttrSet   = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionContinuation)))
	decisionMarkerRecoveryAttrSet = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionMarkerRecovery)))
	decisionOversizedAttrSet      = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionOversized)))
	decisionAdjacentAttrSet       = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionAdjacent)))
	decisionContextAttrSet        = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionContext)))
	decisionNoneAttrSet           = metric.WithAttributeSet(attribute.NewSet(attribute.String("outcome", DecisionNone)))

	triggerSyncAttrSet   = metric.WithAttributeSet(attribute.NewSet(attribute.String("trigger", TriggerSync)))
	triggerAsyncAttrSet  = metric.WithAttributeSet(attribute.NewSet(attribute.String("trigger", TriggerAsync)))
	triggerForcedAttrSet = metric.WithAttributeSet(attribute.NewSet(attribute.String("trigger", TriggerForced)))
)

type otelMetrics struct {
	decisionCount           metric.Int64Counter
	pagesQueuedCount        metric.Int64Counter
	windowSize              metric.Int64Histogram
	congestionDeferralCount metric.Int64Counter
}

// NewOTelMetrics creates a MetricHandle recording through the given meter.
func NewOTelMetrics(meter metric.Meter) (MetricHandle, error) {
	decisionCount, err := meter.Int64Counter("readahead/decision_count",
		metric.WithDescription("The number of read-ahead decisions, partitioned by outcome."),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("creating decision_count: %w", err)
	}
	pagesQueuedCount, err := meter.Int64Counter("readahead/pages_queued_count",
		metric.WithDescription("The number of pages handed to the storage device, partitioned by trigger."),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("creating pages_queued_count: %w", err)
	}
	windowSize, err := meter.Int64Histogram("readahead/window_size",
		metric.WithDescription("The size in pages of decided read-ahead windows."),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("creating window_size: %w", err)
	}
	congestionDeferralCount, err := meter.Int64Counter("readahead/congestion_deferral_count",
		metric.WithDescription("The number of async read-ahead entries deferred due to device congestion."),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("creating congestion_deferral_count: %w", err)
	}

	return &otelMetrics{
		decisionCount:           decisionCount,
		pagesQueuedCount:        pagesQueuedCount,
		windowSize:              windowSize,
		congestionDeferralCount: congestionDeferralCount,
	}, nil
}

func (o *otelMetrics) ReadAheadDecisionCount(inc int64, outcome string) {
	switch outcome {
	case DecisionInitial:
		o.decisionCount.Add(context.Background(), inc, decisionInitialAttrSet)
	case DecisionContinuation:
		o.decisionCount.Add(context.Background(), inc, decisionContinuationAttrSet)
	case DecisionMarkerRecovery:
		o.decisionCount.Add(context.Background(), inc, decisionMarkerRecoveryAttrSet)
	case DecisionOversized:
		o.decisionCount.Add(context.Background(), inc, decisionOversizedAttrSet)
	case DecisionAdjacent:
		o.decisionCount.Add(context.Background(), inc, decisionAdjacentAttrSet)
	case DecisionContext:
		o.decisionCount.Add(context.Background(), inc, decisionContextAttrSet)
	case DecisionNone:
		o.decisionCount.Add(context.Background(), inc, decisionNoneAttrSet)
	}
}

func (o *otelMetrics) ReadAheadPagesQueuedCount(inc int64, trigger string) {
	switch trigger {
	case TriggerSync:
		o.pagesQueuedCount.Add(context.Background(), inc, triggerSyncAttrSet)
	case TriggerAsync:
		o.pagesQueuedCount.Add(context.Background(), inc, triggerAsyncAttrSet)
	case TriggerForced:
		o.pagesQueuedCount.Add(context.Background(), inc, triggerForcedAttrSet)
	}
}

func (o *otelMetrics) ReadAheadWindowSize(ctx context.Context, size int64) {
	o.windowSize.Record(ctx, size)
}

func (o *otelMetrics) ReadAheadCongestionDeferralCount(inc int64) {
	o.congestionDeferralCount.Add(context.Background(), inc)
}
