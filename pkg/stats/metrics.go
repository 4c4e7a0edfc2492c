/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stats

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/craftradar/pkg/scanner"
)

const meterName = "github.com/carverauto/craftradar/pkg/stats"

// Metrics mirrors the aggregator counters into OpenTelemetry. A nil
// *Metrics records nothing.
type Metrics struct {
	scanned metric.Int64Counter
	open    metric.Int64Counter
	found   metric.Int64Counter
}

// NewMetrics creates the counters on the global meter provider, which is a
// no-op until logger.InitializeMetrics installs an exporter.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates the counters on meter.
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	scanned, err := meter.Int64Counter("craftradar.addresses.scanned",
		metric.WithDescription("Addresses probed"),
		metric.WithUnit("{address}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scanned counter: %w", err)
	}

	open, err := meter.Int64Counter("craftradar.ports.open",
		metric.WithDescription("Probes that completed a TCP connect"),
		metric.WithUnit("{port}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create open port counter: %w", err)
	}

	found, err := meter.Int64Counter("craftradar.servers.found",
		metric.WithDescription("Servers that answered the status request"),
		metric.WithUnit("{server}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create servers counter: %w", err)
	}

	return &Metrics{scanned: scanned, open: open, found: found}, nil
}

func (m *Metrics) record(ctx context.Context, ev scanner.Event) {
	if m == nil {
		return
	}

	switch ev.Kind {
	case scanner.EventAddressesScanned:
		m.scanned.Add(ctx, int64(ev.Count))
	case scanner.EventPortOpen:
		m.open.Add(ctx, 1)
	case scanner.EventServerFound:
		var opts []metric.AddOption
		if ev.Server != nil {
			opts = append(opts, metric.WithAttributes(attribute.String("version", ev.Server.Version)))
		}

		m.found.Add(ctx, 1, opts...)
	}
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
