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

// Package scanner runs the scan workers: sample a start address, probe
// forward in chunks, handshake with whatever answered and report events.
package scanner

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/mcping"
	"github.com/carverauto/craftradar/pkg/models"
)

var (
	errInvalidWorkers = errors.New("workers must be at least 1")
	errInvalidChunk   = errors.New("chunk size, max range size and threshold must be at least 1")
)

// Config holds the worker settings.
type Config struct {
	Port                 uint16
	Workers              int
	MaxRangeSize         int
	ConsecutiveThreshold int
	ChunkSize            int
	ProbeTimeout         time.Duration
	BaseSourcePort       int
	PortRangePerWorker   int
}

// ConfigFromModel extracts the worker settings from the scanner configuration.
func ConfigFromModel(cfg *models.ScannerConfig) Config {
	return Config{
		Port:                 uint16(cfg.Scanning.Port),
		Workers:              cfg.Scanning.Workers,
		MaxRangeSize:         cfg.Scanning.MaxRangeSize,
		ConsecutiveThreshold: cfg.Scanning.ConsecutiveThreshold,
		ChunkSize:            cfg.Scanning.ChunkSize,
		ProbeTimeout:         cfg.Timeouts.PortCheck(),
		BaseSourcePort:       cfg.Networking.BaseSourcePort,
		PortRangePerWorker:   cfg.Networking.PortRangePerWorker,
	}
}

// Scanner owns the worker pool. The event bus is closed when Run returns.
type Scanner struct {
	cfg     Config
	sampler AddressSource
	prober  Prober
	pinger  Pinger
	bus     *EventBus
	logger  logger.Logger
	now     func() time.Time
}

// New wires a scanner.
func New(cfg Config, sampler AddressSource, prober Prober, pinger Pinger, bus *EventBus, log logger.Logger) *Scanner {
	return &Scanner{
		cfg:     cfg,
		sampler: sampler,
		prober:  prober,
		pinger:  pinger,
		bus:     bus,
		logger:  log,
		now:     time.Now,
	}
}

// Run starts cfg.Workers workers and blocks until ctx is cancelled or a
// worker fails to start. Workers stop between chunks; the bus is closed
// after the last one returns.
func (s *Scanner) Run(ctx context.Context) error {
	defer s.bus.Close()

	if s.cfg.Workers < 1 {
		return errInvalidWorkers
	}

	if s.cfg.ChunkSize < 1 || s.cfg.MaxRangeSize < 1 || s.cfg.ConsecutiveThreshold < 1 {
		return errInvalidChunk
	}

	s.logger.Info().
		Int("workers", s.cfg.Workers).
		Uint16("port", s.cfg.Port).
		Int("chunk_size", s.cfg.ChunkSize).
		Int("max_range_size", s.cfg.MaxRangeSize).
		Int("consecutive_threshold", s.cfg.ConsecutiveThreshold).
		Bool("event_bus_bounded", s.bus.Bounded()).
		Msg("Starting parallel scan")

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			return s.runWorker(gctx, i)
		})
	}

	err := g.Wait()

	s.logger.Info().Msg("All scan workers stopped")

	return err
}

// ProbeTestServers pings each configured address once, without a source
// port, and logs the outcome. It returns how many answered.
func (s *Scanner) ProbeTestServers(ctx context.Context, addrs []string) int {
	found := 0

	for _, raw := range addrs {
		if ctx.Err() != nil {
			break
		}

		addr, err := netip.ParseAddr(raw)
		if err != nil || !addr.Is4() {
			s.logger.Warn().Str("address", raw).Msg("Skipping invalid test server address")

			continue
		}

		s.logger.Info().Msgf("[TEST] Ping server %s:%d", addr, s.cfg.Port)

		status, err := s.pinger.Ping(ctx, addr, s.cfg.Port, 0)
		if err != nil {
			s.logger.Info().Msgf("[MISS][TEST] %s:%d no valid response (%v)", addr, s.cfg.Port, err)

			continue
		}

		found++

		s.logger.Info().Msg(discovered(addr, s.cfg.Port, status, s.now()).TaggedSummary("TEST"))
	}

	return found
}

func discovered(addr netip.Addr, port uint16, status *mcping.ServerStatus, at time.Time) *models.DiscoveredServer {
	server := &models.DiscoveredServer{
		Address:      addr.String(),
		Port:         int(port),
		Version:      status.VersionName(),
		Description:  status.DescriptionText(),
		DiscoveredAt: at,
	}

	if status.Players != nil {
		server.PlayersOnline = status.Players.Online
		server.PlayersMax = status.Players.Max
	}

	return server
}
