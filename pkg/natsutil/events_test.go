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

package natsutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/models"
	"github.com/carverauto/craftradar/pkg/natsutil/natstest"
)

var errTestFixture = errors.New("fixture")

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:    "adds subject when list empty",
			subject: "craftradar.servers.discovered",
			want:    []string{"craftradar.servers.discovered"},
		},
		{
			name:     "keeps list when wildcard matches",
			subjects: []string{"craftradar.servers.*"},
			subject:  "craftradar.servers.discovered",
			want:     []string{"craftradar.servers.*"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"craftradar.>"},
			subject:  "craftradar.servers.discovered",
			want:     []string{"craftradar.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"events.poller.*"},
			subject:  "craftradar.servers.discovered",
			want:     []string{"events.poller.*", "craftradar.servers.discovered"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "craftradar.servers.discovered", "craftradar.servers.discovered", true},
		{"single wildcard", "craftradar.*.discovered", "craftradar.servers.discovered", true},
		{"greater wildcard", "craftradar.>", "craftradar.servers.discovered", true},
		{"greater wildcard needs a token", "craftradar.>", "craftradar", false},
		{"no match length", "craftradar.*", "craftradar.servers.discovered", false},
		{"pattern longer than subject", "craftradar.servers.discovered.x", "craftradar.servers.discovered", false},
		{"no match tokens", "events.poller.*", "craftradar.servers.discovered", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isStreamMissingErr(tc.err))
		})
	}
}

func TestPublisherWithoutJetStream(t *testing.T) {
	t.Parallel()

	p := NewEventPublisher(nil, "servers", nil)

	require.ErrorIs(t, p.EnsureStream(context.Background(), "craftradar.servers.discovered"), errNoJetStream)

	_, err := p.Publish(context.Background(), "craftradar.servers.discovered", &models.CloudEvent{ID: "x"})
	require.ErrorIs(t, err, errNoJetStream)
}

func TestCreateEventPublisherAndPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv := natstest.RunJetStreamServer(t)

	nc, err := Connect(srv.ClientURL(), "natsutil-test", "", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	// An existing stream that does not cover the subject gets widened.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{Name: "servers", Subjects: []string{"other.>"}})
	require.NoError(t, err)

	p, err := CreateEventPublisher(ctx, nc, "servers", "craftradar.servers.discovered")
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "servers")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"other.>", "craftradar.servers.discovered"}, stream.CachedInfo().Config.Subjects)

	event := &models.CloudEvent{
		SpecVersion: models.CloudEventSpecVersion,
		ID:          "evt-1",
		Source:      "craftradar",
		Type:        models.ServerDiscoveredEventType,
		Data:        map[string]string{"address": "203.0.113.7"},
	}

	seq, err := p.Publish(ctx, "craftradar.servers.discovered", event)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	msg, err := stream.GetMsg(ctx, seq)
	require.NoError(t, err)

	var got models.CloudEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, models.ServerDiscoveredEventType, got.Type)
}

func TestCreateEventPublisherCreatesMissingStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv := natstest.RunJetStreamServer(t)

	nc, err := Connect(srv.ClientURL(), "natsutil-test", "", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	_, err = CreateEventPublisher(ctx, nc, "fresh", "craftradar.servers.discovered")
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"craftradar.servers.discovered"}, stream.CachedInfo().Config.Subjects)
}

func TestConnectFailure(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "natsutil-test", "", logger.NewTestLogger(), nats.Timeout(200*time.Millisecond))
	require.Error(t, err)
}
