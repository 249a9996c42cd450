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

package cmd

import (
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/net/context"

	"github.com/cachefs/pagecache/metrics"
)

// newSimMetrics wires the simulator's stream to an in-process OpenTelemetry
// pipeline when metrics are enabled. The returned flush function collects
// and prints whatever was recorded.
func newSimMetrics() (metrics.MetricHandle, func(context.Context, io.Writer) error, error) {
	if !config.Metrics.Enabled {
		return metrics.NewNoopMetrics(), func(context.Context, io.Writer) error { return nil }, nil
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	handle, err := metrics.NewOTelMetrics(provider.Meter("pagecache"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating otel metrics: %w", err)
	}

	flush := func(ctx context.Context, w io.Writer) error {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			return fmt.Errorf("collecting metrics: %w", err)
		}
		fmt.Fprintln(w, "metrics:")
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				switch data := m.Data.(type) {
				case metricdata.Sum[int64]:
					for _, dp := range data.DataPoints {
						fmt.Fprintf(w, "  %s%s: %d\n", m.Name, attrSuffix(dp.Attributes.ToSlice()), dp.Value)
					}
				case metricdata.Histogram[int64]:
					for _, dp := range data.DataPoints {
						fmt.Fprintf(w, "  %s: count=%d sum=%d\n", m.Name, dp.Count, dp.Sum)
					}
				}
			}
		}
		return provider.Shutdown(ctx)
	}
	return handle, flush, nil
}

func attrSuffix(attrs []attribute.KeyValue) string {
	if len(attrs) == 0 {
		return ""
	}
	s := "{"
	for i, a := range attrs {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%s", a.Key, a.Value.Emit())
	}
	return s + "}"
}
