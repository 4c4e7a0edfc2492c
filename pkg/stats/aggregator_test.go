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
	"errors"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/models"
	"github.com/carverauto/craftradar/pkg/scanner"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is advanced by hand.
type fakeClock struct {
	now  time.Time
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testStart, tick: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Ticker(time.Duration) Ticker { return c }

func (c *fakeClock) Chan() <-chan time.Time { return c.tick }

func (*fakeClock) Stop() {}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testServer() *models.DiscoveredServer {
	return &models.DiscoveredServer{
		Address:       "203.0.113.7",
		Port:          25565,
		PlayersOnline: 3,
		PlayersMax:    20,
		Version:       "1.21.1",
		Description:   "hello",
		DiscoveredAt:  testStart,
	}
}

func scanSequence() []scanner.Event {
	addr := netip.MustParseAddr("203.0.113.7")

	return []scanner.Event{
		{Kind: scanner.EventAddressesScanned, Count: 50},
		{Kind: scanner.EventPortOpen, Address: addr},
		{Kind: scanner.EventServerFound, Address: addr, Server: testServer()},
	}
}

func TestReportTotalsWithZeroRuntime(t *testing.T) {
	clock := newFakeClock()
	agg := NewAggregator(30*time.Second, testStart, clock, logger.NewTestLogger())

	for _, ev := range scanSequence() {
		agg.Handle(context.Background(), ev)
	}

	r := agg.Report(context.Background())

	assert.Equal(t, Counters{Scanned: 50, PortsOpen: 1, ServersFound: 1}, r.Totals)
	assert.InDelta(t, 50.0, r.LifetimeRate, 1e-9)
	assert.InDelta(t, 2.0, r.OpenPct, 1e-9)
	assert.InDelta(t, 2.0, r.DiscoveryPct, 1e-9)
	assert.False(t, r.Final)
	assert.Nil(t, r.Resources)
}

func TestReportRates(t *testing.T) {
	clock := newFakeClock()
	agg := NewAggregator(30*time.Second, testStart, clock, logger.NewTestLogger())

	agg.Handle(context.Background(), scanner.Event{Kind: scanner.EventAddressesScanned, Count: 600})
	clock.advance(30 * time.Second)

	r := agg.Report(context.Background())
	assert.InDelta(t, 1200.0, r.LifetimeRate, 1e-9)
	assert.InDelta(t, 1200.0, r.RecentRate, 1e-9)
	assert.Equal(t, uint64(600), r.Delta.Scanned)

	agg.Handle(context.Background(), scanner.Event{Kind: scanner.EventAddressesScanned, Count: 300})
	clock.advance(30 * time.Second)

	r = agg.Report(context.Background())
	assert.Equal(t, uint64(900), r.Totals.Scanned)
	assert.Equal(t, uint64(300), r.Delta.Scanned)
	assert.InDelta(t, 900.0, r.LifetimeRate, 1e-9)
	assert.InDelta(t, 600.0, r.RecentRate, 1e-9)
}

func TestLifetimeRateUsesWholeSeconds(t *testing.T) {
	assert.InDelta(t, 10.0, lifetimeRate(10, 900*time.Millisecond), 1e-9)
	assert.InDelta(t, 600.0, lifetimeRate(10, time.Second+500*time.Millisecond), 1e-9)
	assert.InDelta(t, 0.0, lifetimeRate(0, time.Minute), 1e-9)
}

func TestDue(t *testing.T) {
	clock := newFakeClock()
	agg := NewAggregator(30*time.Second, testStart, clock, logger.NewTestLogger())

	assert.False(t, agg.Due())

	clock.advance(29 * time.Second)
	assert.False(t, agg.Due())

	clock.advance(time.Second)
	assert.True(t, agg.Due())

	agg.Report(context.Background())
	assert.False(t, agg.Due())
}

func TestServerFoundIsDispatched(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := NewMockDispatcher(ctrl)

	server := testServer()
	dispatcher.EXPECT().Submit(server).Return(true)

	agg := NewAggregator(time.Minute, testStart, newFakeClock(), logger.NewTestLogger(), WithDispatcher(dispatcher))
	agg.Handle(context.Background(), scanner.Event{Kind: scanner.EventServerFound, Server: server})

	assert.Equal(t, uint64(1), agg.Totals().ServersFound)
}

func TestDroppedDispatchStillCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := NewMockDispatcher(ctrl)
	dispatcher.EXPECT().Submit(gomock.Any()).Return(false).Times(2)

	agg := NewAggregator(time.Minute, testStart, newFakeClock(), logger.NewTestLogger(), WithDispatcher(dispatcher))

	for range 2 {
		agg.Handle(context.Background(), scanner.Event{Kind: scanner.EventServerFound, Server: testServer()})
	}

	assert.Equal(t, uint64(2), agg.Totals().ServersFound)
}

func TestReportIncludesResources(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockResourceSampler(ctrl)

	sample := ResourceSample{RSSBytes: 64 << 20, OpenFDs: 12, HostMemPct: 41.5}
	sampler.EXPECT().Sample(gomock.Any()).Return(sample, nil)
	sampler.EXPECT().Sample(gomock.Any()).Return(ResourceSample{}, errors.New("proc unavailable"))

	agg := NewAggregator(time.Minute, testStart, newFakeClock(), logger.NewTestLogger(), WithResources(sampler))

	r := agg.Report(context.Background())
	require.NotNil(t, r.Resources)
	assert.Equal(t, sample, *r.Resources)

	r = agg.Report(context.Background())
	assert.Nil(t, r.Resources)
}

func TestRunFinalReportOnClose(t *testing.T) {
	clock := newFakeClock()
	agg := NewAggregator(time.Hour, testStart, clock, logger.NewTestLogger())

	events := make(chan scanner.Event, 3)
	for _, ev := range scanSequence() {
		events <- ev
	}

	close(events)

	r := agg.Run(context.Background(), events)

	assert.True(t, r.Final)
	assert.Equal(t, Counters{Scanned: 50, PortsOpen: 1, ServersFound: 1}, r.Totals)
}

func TestRunDrainsAfterCancel(t *testing.T) {
	agg := NewAggregator(time.Hour, testStart, newFakeClock(), logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan scanner.Event, 1)
	events <- scanner.Event{Kind: scanner.EventAddressesScanned, Count: 7}
	close(events)

	r := agg.Run(ctx, events)
	assert.Equal(t, uint64(7), r.Totals.Scanned)
}

func TestRunReportsOnTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	ticker := NewMockTicker(ctrl)

	var elapsed atomic.Int64

	tick := make(chan time.Time)

	clock.EXPECT().Now().DoAndReturn(func() time.Time {
		return testStart.Add(time.Duration(elapsed.Load()))
	}).AnyTimes()
	clock.EXPECT().Ticker(10 * time.Second).Return(ticker)
	ticker.EXPECT().Chan().Return(tick).AnyTimes()
	ticker.EXPECT().Stop()

	agg := NewAggregator(10*time.Second, testStart, clock, logger.NewTestLogger())

	events := make(chan scanner.Event)
	done := make(chan Report, 1)

	go func() { done <- agg.Run(context.Background(), events) }()

	events <- scanner.Event{Kind: scanner.EventAddressesScanned, Count: 20}

	// Handle returns before the next receive, so the tick below is seen after the count.
	events <- scanner.Event{Kind: scanner.EventAddressesScanned, Count: 0}

	elapsed.Store(int64(10 * time.Second))
	tick <- testStart.Add(10 * time.Second)

	close(events)

	r := <-done
	assert.True(t, r.Final)
	assert.Equal(t, uint64(20), r.Totals.Scanned)
	// The tick report reset the baseline.
	assert.Equal(t, uint64(0), r.Delta.Scanned)
}

func TestMetricsRecordEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)

	agg := NewAggregator(time.Minute, testStart, newFakeClock(), logger.NewTestLogger(), WithMetrics(m))
	for _, ev := range scanSequence() {
		agg.Handle(context.Background(), ev)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]metricdata.Sum[int64]{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, metric.Name)

		sums[metric.Name] = sum
	}

	require.Contains(t, sums, "craftradar.addresses.scanned")
	assert.Equal(t, int64(50), sums["craftradar.addresses.scanned"].DataPoints[0].Value)
	assert.Equal(t, int64(1), sums["craftradar.ports.open"].DataPoints[0].Value)

	found := sums["craftradar.servers.found"].DataPoints
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].Value)

	version, ok := found[0].Attributes.Value(attribute.Key("version"))
	require.True(t, ok)
	assert.Equal(t, "1.21.1", version.AsString())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.record(context.Background(), scanner.Event{Kind: scanner.EventPortOpen})
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.125", formatPct(0.125))
	assert.Equal(t, "2.000", formatPct(2))
	assert.InDelta(t, 12.3, round1(12.34), 1e-9)
}
