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

// Package stats aggregates scan events into running totals and periodic
// reports, and forwards discovered servers to the notification dispatcher.
package stats

import (
	"context"
	"time"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/scanner"
)

const resourceSampleTimeout = 2 * time.Second

// Counters are the cumulative event totals.
type Counters struct {
	Scanned      uint64
	PortsOpen    uint64
	ServersFound uint64
}

// Sub returns c - o field by field.
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		Scanned:      c.Scanned - o.Scanned,
		PortsOpen:    c.PortsOpen - o.PortsOpen,
		ServersFound: c.ServersFound - o.ServersFound,
	}
}

// Report is one statistics snapshot. Rates are addresses per minute,
// percentages are relative to Totals.Scanned.
type Report struct {
	Runtime      time.Duration
	Interval     time.Duration
	Totals       Counters
	Delta        Counters
	LifetimeRate float64
	RecentRate   float64
	OpenPct      float64
	DiscoveryPct float64
	Resources    *ResourceSample
	Final        bool
}

// Aggregator is the single consumer of scan events. Only Run's goroutine
// may call Handle and Report.
type Aggregator struct {
	interval   time.Duration
	start      time.Time
	lastReport time.Time
	clock      Clock
	logger     logger.Logger

	totals   Counters
	baseline Counters

	dispatcher Dispatcher
	metrics    *Metrics
	resources  ResourceSampler
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDispatcher forwards every discovered server to d.
func WithDispatcher(d Dispatcher) Option {
	return func(a *Aggregator) { a.dispatcher = d }
}

// WithMetrics mirrors the counters into OpenTelemetry instruments.
func WithMetrics(m *Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithResources adds a resource usage line to each report.
func WithResources(r ResourceSampler) Option {
	return func(a *Aggregator) { a.resources = r }
}

// NewAggregator creates an aggregator reporting every interval. start is the
// process start time and is the origin for runtime and lifetime rate.
func NewAggregator(interval time.Duration, start time.Time, clock Clock, log logger.Logger, opts ...Option) *Aggregator {
	if clock == nil {
		clock = RealClock()
	}

	a := &Aggregator{
		interval:   interval,
		start:      start,
		lastReport: clock.Now(),
		clock:      clock,
		logger:     log,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Totals returns the cumulative counters.
func (a *Aggregator) Totals() Counters {
	return a.totals
}

// Handle applies one event.
func (a *Aggregator) Handle(ctx context.Context, ev scanner.Event) {
	switch ev.Kind {
	case scanner.EventAddressesScanned:
		a.totals.Scanned += uint64(ev.Count)
	case scanner.EventPortOpen:
		a.totals.PortsOpen++
	case scanner.EventServerFound:
		a.totals.ServersFound++

		if ev.Server != nil {
			a.logger.Info().Msg(ev.Server.Summary())

			if a.dispatcher != nil && !a.dispatcher.Submit(ev.Server) {
				a.logger.Warn().Str("server", ev.Server.Endpoint()).Msg("Notification queue full, dropping discovery")
			}
		}
	}

	a.metrics.record(ctx, ev)
}

// Due reports whether the report interval has elapsed since the last report.
func (a *Aggregator) Due() bool {
	return a.clock.Now().Sub(a.lastReport) >= a.interval
}

// Report computes and logs a snapshot, then moves the baselines to the
// current totals and restarts the interval.
func (a *Aggregator) Report(ctx context.Context) Report {
	return a.report(ctx, false)
}

func (a *Aggregator) report(ctx context.Context, final bool) Report {
	now := a.clock.Now()

	r := Report{
		Runtime:  now.Sub(a.start),
		Interval: a.interval,
		Totals:   a.totals,
		Delta:    a.totals.Sub(a.baseline),
		Final:    final,
	}

	r.LifetimeRate = lifetimeRate(r.Totals.Scanned, r.Runtime)

	if secs := a.interval.Seconds(); secs > 0 {
		r.RecentRate = float64(r.Delta.Scanned) * 60 / secs
	}

	if r.Totals.Scanned > 0 {
		r.OpenPct = float64(r.Totals.PortsOpen) / float64(r.Totals.Scanned) * 100
		r.DiscoveryPct = float64(r.Totals.ServersFound) / float64(r.Totals.Scanned) * 100
	}

	if a.resources != nil {
		sampleCtx, cancel := context.WithTimeout(ctx, resourceSampleTimeout)
		sample, err := a.resources.Sample(sampleCtx)
		cancel()

		if err != nil {
			a.logger.Debug().Err(err).Msg("Failed to sample process resources")
		} else {
			r.Resources = &sample
		}
	}

	a.log(r)

	a.baseline = a.totals
	a.lastReport = now

	return r
}

// lifetimeRate is scanned*60 over whole elapsed seconds; with no whole
// second elapsed it is scanned itself.
func lifetimeRate(scanned uint64, runtime time.Duration) float64 {
	secs := int64(runtime / time.Second)
	if secs <= 0 {
		return float64(scanned)
	}

	return float64(scanned) * 60 / float64(secs)
}

func (a *Aggregator) log(r Report) {
	msg := "Scan statistics"
	if r.Final {
		msg = "Final scan statistics"
	}

	a.logger.Info().
		Uint64("scanned", r.Totals.Scanned).
		Uint64("ports_open", r.Totals.PortsOpen).
		Str("open_pct", formatPct(r.OpenPct)).
		Uint64("servers_found", r.Totals.ServersFound).
		Str("discovery_pct", formatPct(r.DiscoveryPct)).
		Float64("scans_per_min_total", round1(r.LifetimeRate)).
		Float64("scans_per_min_recent", round1(r.RecentRate)).
		Float64("runtime_min", round1(r.Runtime.Minutes())).
		Msg(msg)

	if r.Delta.PortsOpen > 0 || r.Delta.ServersFound > 0 {
		a.logger.Info().
			Uint64("scanned", r.Delta.Scanned).
			Uint64("ports_open", r.Delta.PortsOpen).
			Uint64("servers_found", r.Delta.ServersFound).
			Dur("interval", r.Interval).
			Msg("Recent activity")
	}

	if r.Resources != nil {
		a.logger.Info().
			Uint64("rss_bytes", r.Resources.RSSBytes).
			Int32("open_fds", r.Resources.OpenFDs).
			Float64("host_mem_pct", round1(r.Resources.HostMemPct)).
			Msg("Process resources")
	}
}

// Run consumes events until the channel is closed, reporting whenever the
// interval has elapsed, and returns the final report. Closing the channel is
// the only way to stop it, so no event is lost at shutdown.
func (a *Aggregator) Run(ctx context.Context, events <-chan scanner.Event) Report {
	// Draining continues after shutdown starts.
	ctx = context.WithoutCancel(ctx)

	ticker := a.clock.Ticker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return a.report(ctx, true)
			}

			a.Handle(ctx, ev)

			if a.Due() {
				a.Report(ctx)
			}
		case <-ticker.Chan():
			if a.Due() {
				a.Report(ctx)
			}
		}
	}
}
