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

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/carverauto/craftradar/pkg/geo"
	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/models"
)

const releaseTimeout = 5 * time.Second

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func DispatcherConfigFromModel(cfg models.NotifyConfig) DispatcherConfig {
	return DispatcherConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Timeout:   cfg.Timeout(),
	}
}

// Dispatcher decouples notification delivery from the statistics loop.
// Submit never blocks: discoveries go into a bounded queue drained by one
// consumer that hands each to a fixed-size worker pool. Close waits for
// every accepted discovery to be delivered or to time out.
type Dispatcher struct {
	notifier Notifier
	locator  geo.Locator
	pool     *ants.Pool
	timeout  time.Duration
	logger   logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan models.DiscoveredServer

	inflight sync.WaitGroup
	done     chan struct{}
}

// NewDispatcher starts the consumer. locator may be nil.
func NewDispatcher(notifier Notifier, locator geo.Locator, cfg DispatcherConfig, log logger.Logger) (*Dispatcher, error) {
	if cfg.Workers < 1 {
		return nil, errInvalidPoolSize
	}

	if cfg.QueueSize < 1 {
		return nil, errInvalidQueueSize
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p interface{}) {
		log.Error().Interface("panic", p).Msg("Notification worker panicked")
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification pool: %w", err)
	}

	d := &Dispatcher{
		notifier: notifier,
		locator:  locator,
		pool:     pool,
		timeout:  cfg.Timeout,
		logger:   log,
		queue:    make(chan models.DiscoveredServer, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	go d.consume()

	return d, nil
}

// Submit queues a copy of server for delivery. It reports false when the
// queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(server *models.DiscoveredServer) bool {
	if server == nil {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.queue <- *server:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) consume() {
	defer close(d.done)

	for server := range d.queue {
		d.inflight.Add(1)

		task := func() {
			defer d.inflight.Done()

			d.deliver(server)
		}

		if err := d.pool.Submit(task); err != nil {
			d.inflight.Done()
			d.logger.Warn().Err(err).Str("server", server.Endpoint()).Msg("Failed to schedule notification")
		}
	}
}

// deliver runs detached from the scan context so discoveries accepted
// before shutdown still go out.
func (d *Dispatcher) deliver(server models.DiscoveredServer) {
	ctx := context.Background()

	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if server.Country == "" && d.locator != nil {
		if country, ok := d.locator.Country(ctx, server.Address); ok {
			server.Country = country
		}
	}

	if err := d.notifier.Notify(ctx, server); err != nil {
		d.logger.Warn().Err(err).Str("server", server.Endpoint()).Msg("Notification failed")
	}
}

// Close stops accepting discoveries and waits for the queue to drain.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}

	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	d.inflight.Wait()

	if err := d.pool.ReleaseTimeout(releaseTimeout); err != nil {
		return fmt.Errorf("failed to release notification pool: %w", err)
	}

	return nil
}
