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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/models"
	"github.com/carverauto/craftradar/pkg/natsutil"
)

const cloudEventContentType = "application/json"

// NATS publishes each discovery as a CloudEvent. With a stream configured
// the event goes through JetStream and is acknowledged; otherwise it is a
// plain core NATS publish.
type NATS struct {
	nc        *nats.Conn
	publisher *natsutil.EventPublisher
	subject   string
	source    string
	logger    logger.Logger
}

// NewNATS connects to cfg.URL and, when cfg.Stream is set, ensures the stream
// covers cfg.Subject.
func NewNATS(ctx context.Context, cfg models.NATSConfig, log logger.Logger, opts ...nats.Option) (*NATS, error) {
	nc, err := natsutil.Connect(cfg.URL, cfg.Source, cfg.Creds, log, opts...)
	if err != nil {
		return nil, err
	}

	n := &NATS{
		nc:      nc,
		subject: cfg.Subject,
		source:  cfg.Source,
		logger:  log,
	}

	if cfg.Stream != "" {
		n.publisher, err = natsutil.CreateEventPublisher(ctx, nc, cfg.Stream, cfg.Subject)
		if err != nil {
			nc.Close()
			return nil, err
		}
	}

	return n, nil
}

func (n *NATS) Notify(ctx context.Context, server models.DiscoveredServer) error {
	at := server.DiscoveredAt.UTC()

	event := &models.CloudEvent{
		SpecVersion:     models.CloudEventSpecVersion,
		ID:              uuid.NewString(),
		Source:          n.source,
		Type:            models.ServerDiscoveredEventType,
		DataContentType: cloudEventContentType,
		Subject:         n.subject,
		Time:            &at,
		Data:            server,
	}

	if n.publisher != nil {
		seq, err := n.publisher.Publish(ctx, n.subject, event)
		if err != nil {
			return err
		}

		n.logger.Debug().Str("event_id", event.ID).Uint64("seq", seq).Msg("Published discovery event")

		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	if err := n.nc.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	return nil
}

// Close flushes pending publishes and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}
