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

// Package natsutil holds the NATS connection and JetStream publishing helpers.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/craftradar/pkg/models"
)

var errNoJetStream = errors.New("JetStream context is nil")

// EventPublisher publishes CloudEvents into a JetStream stream.
type EventPublisher struct {
	js       jetstream.JetStream
	stream   string
	subjects []string
}

// NewEventPublisher creates a publisher for streamName. subjects seeds the
// stream's subject list if EnsureStream has to create it.
func NewEventPublisher(js jetstream.JetStream, streamName string, subjects []string) *EventPublisher {
	return &EventPublisher{
		js:       js,
		stream:   streamName,
		subjects: subjects,
	}
}

// CreateEventPublisher builds a JetStream context on nc and makes sure the
// stream exists and covers subject.
func CreateEventPublisher(ctx context.Context, nc *nats.Conn, streamName, subject string) (*EventPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := NewEventPublisher(js, streamName, []string{subject})

	if err := p.EnsureStream(ctx, subject); err != nil {
		return nil, err
	}

	return p, nil
}

// EnsureStream creates the stream if it is missing, and widens its subject
// list when subject is not already covered.
func (p *EventPublisher) EnsureStream(ctx context.Context, subject string) error {
	if p.js == nil {
		return errNoJetStream
	}

	stream, err := p.js.Stream(ctx, p.stream)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", p.stream, err)
		}

		cfg := jetstream.StreamConfig{
			Name:     p.stream,
			Subjects: ensureSubjectList(slices.Clone(p.subjects), subject),
		}

		if _, err := p.js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", p.stream, err)
		}

		return nil
	}

	cfg := stream.CachedInfo().Config

	updated := ensureSubjectList(slices.Clone(cfg.Subjects), subject)
	if len(updated) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = updated

	if _, err := p.js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject %s to stream %s: %w", subject, p.stream, err)
	}

	return nil
}

// Publish marshals event and publishes it on subject, returning the stream sequence.
func (p *EventPublisher) Publish(ctx context.Context, subject string, event *models.CloudEvent) (uint64, error) {
	if p.js == nil {
		return 0, errNoJetStream
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	return ack.Sequence, nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether subject falls under pattern, honouring the
// NATS "*" (one token) and ">" (rest of subject) wildcards.
func matchesSubject(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, tok := range pTokens {
		if tok == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if tok != "*" && tok != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}
