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

// Package app wires the scanner, statistics and notification pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/craftradar/pkg/config"
	"github.com/carverauto/craftradar/pkg/geo"
	"github.com/carverauto/craftradar/pkg/lifecycle"
	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/mcping"
	"github.com/carverauto/craftradar/pkg/models"
	"github.com/carverauto/craftradar/pkg/notify"
	"github.com/carverauto/craftradar/pkg/scan"
	"github.com/carverauto/craftradar/pkg/scanner"
	"github.com/carverauto/craftradar/pkg/stats"
	"github.com/carverauto/craftradar/pkg/version"
)

const (
	componentName   = "craftradar"
	shutdownTimeout = 10 * time.Second
)

var errFailedToLoadConfig = errors.New("failed to load config")

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
}

// Run loads the configuration and scans until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	start := time.Now()

	var cfg models.ScannerConfig
	if err := config.NewConfig(nil).LoadAndValidate(ctx, opts.ConfigPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	env, err := lifecycle.SetupEnvironment(componentName, cfg.OutputDir, cfg.Logging, start)
	if err != nil {
		return err
	}

	log := env.Logger

	log.Info().Str("version", version.GetFullVersion()).Msg("Starting craftradar")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := env.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	if filtered, err := models.FilterSensitiveFields(&cfg); err == nil {
		log.Info().Interface("config", filtered).Msg("Loaded configuration")
	}

	if _, err := logger.InitializeMetrics(ctx, cfg.Metrics); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return err
	}

	blocks, err := scan.LoadBlocksFile(cfg.BlocksFile)
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		log.Warn().Str("file", cfg.BlocksFile).Msg("No address blocks loaded, sampling the public IPv4 space")
	} else {
		log.Info().Int("blocks", len(blocks)).Str("file", cfg.BlocksFile).Msg("Loaded address blocks")
	}

	pinger := mcping.NewClient(mcping.Config{
		ProtocolVersion:  int32(cfg.Protocol.Version),
		ConnectTimeout:   cfg.Timeouts.Connection(),
		ResponseTimeout:  cfg.Timeouts.ProtocolResponse(),
		MaxResponseBytes: cfg.Protocol.MaxResponseBytes,
	})

	bus := scanner.NewEventBus(cfg.Stats.EventBuffer)

	s := scanner.New(scanner.ConfigFromModel(&cfg), scan.NewSampler(blocks, nil), scan.NewTCPProber(),
		pinger, bus, logger.Component(log, "scanner"))

	pipeline, err := newNotifyPipeline(ctx, &cfg, log)
	if err != nil {
		return err
	}

	agg, err := newAggregator(&cfg, start, pipeline, log)
	if err != nil {
		_ = pipeline.Close()
		return err
	}

	if len(cfg.TestServers.Addresses) > 0 {
		found := s.ProbeTestServers(ctx, cfg.TestServers.Addresses)
		log.Info().Int("answered", found).Int("configured", len(cfg.TestServers.Addresses)).Msg("Test servers probed")
	}

	reports := make(chan stats.Report, 1)

	go func() {
		reports <- agg.Run(ctx, bus.Events())
	}()

	// Run closes the bus, which ends the aggregator after its final report.
	scanErr := s.Run(ctx)

	<-reports

	if err := pipeline.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing notification pipeline")
	}

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		return scanErr
	}

	log.Info().Dur("runtime", time.Since(start)).Msg("Scanner stopped")

	return nil
}

func newAggregator(cfg *models.ScannerConfig, start time.Time, pipeline *notifyPipeline, log logger.Logger) (*stats.Aggregator, error) {
	opts := []stats.Option{}

	if pipeline.dispatcher != nil {
		opts = append(opts, stats.WithDispatcher(pipeline.dispatcher))
	}

	metrics, err := stats.NewMetrics()
	if err != nil {
		return nil, err
	}

	opts = append(opts, stats.WithMetrics(metrics))

	if sampler, err := stats.NewProcessSampler(); err != nil {
		log.Warn().Err(err).Msg("Process resource sampling unavailable")
	} else {
		opts = append(opts, stats.WithResources(sampler))
	}

	return stats.NewAggregator(cfg.Stats.Interval(), start, nil, logger.Component(log, "stats"), opts...), nil
}

// notifyPipeline owns the dispatcher and every closeable sink behind it.
type notifyPipeline struct {
	dispatcher *notify.Dispatcher
	closers    []func() error
}

func newNotifyPipeline(ctx context.Context, cfg *models.ScannerConfig, log logger.Logger) (*notifyPipeline, error) {
	p := &notifyPipeline{}

	notifiers, err := p.buildNotifiers(ctx, cfg, log)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	if len(notifiers) == 0 {
		log.Info().Msg("No notifiers enabled")
		return p, nil
	}

	locator := p.buildLocator(cfg, log)

	p.dispatcher, err = notify.NewDispatcher(notifiers, locator, notify.DispatcherConfigFromModel(cfg.Notify),
		logger.Component(log, "notify"))
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

func (p *notifyPipeline) buildNotifiers(ctx context.Context, cfg *models.ScannerConfig, log logger.Logger) (notify.Multi, error) {
	var notifiers notify.Multi

	if cfg.Notify.Discord.Enabled {
		notifiers = append(notifiers, notify.NewDiscord(cfg.Notify.Discord, nil, logger.Component(log, "discord")))
	}

	if cfg.Notify.NATS.Enabled {
		n, err := notify.NewNATS(ctx, cfg.Notify.NATS, logger.Component(log, "nats"))
		if err != nil {
			return nil, err
		}

		notifiers = append(notifiers, n)
		p.closers = append(p.closers, n.Close)
	}

	return notifiers, nil
}

func (p *notifyPipeline) buildLocator(cfg *models.ScannerConfig, log logger.Logger) geo.Locator {
	var chain geo.Chain

	geoLog := logger.Component(log, "geo")

	if cfg.Geo.MaxMindDB != "" {
		mm, err := geo.OpenMaxMind(cfg.Geo.MaxMindDB, geoLog)
		if err != nil {
			log.Warn().Err(err).Msg("MaxMind database unavailable")
		} else {
			chain = append(chain, mm)
			p.closers = append(p.closers, mm.Close)
		}
	}

	if cfg.Geo.HTTPEnabled {
		chain = append(chain, geo.NewIPAPI(cfg.Geo.HTTPEndpoint, cfg.Geo.Timeout(), nil, geoLog))
	}

	if len(chain) == 0 {
		return nil
	}

	return chain
}

// Close joins outstanding notifications, then releases the sinks.
func (p *notifyPipeline) Close() error {
	var errs []error

	if p.dispatcher != nil {
		errs = append(errs, p.dispatcher.Close())
	}

	for _, c := range p.closers {
		errs = append(errs, c())
	}

	return errors.Join(errs...)
}
