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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/carverauto/craftradar/pkg/logger"
	"github.com/carverauto/craftradar/pkg/models"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryUnit    = time.Second
	maxDescriptionBytes = 1000
	noDescription       = "No description"
	unknownCountry      = "Unknown"
	footerText          = "Minecraft Port Scanner"
	maxDrainBytes       = 4 << 10
)

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
	Footer    embedFooter  `json:"footer"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Discord posts an embed to the webhook routed by server version and
// player activity.
type Discord struct {
	routes      []models.DiscordRoute
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	retryUnit   time.Duration
	logger      logger.Logger
	now         func() time.Time
}

// NewDiscord builds a webhook notifier. A nil client uses one bounded by
// the caller's context only.
func NewDiscord(cfg models.DiscordConfig, client *http.Client, log logger.Logger) *Discord {
	if client == nil {
		client = &http.Client{}
	}

	routes := cfg.Routes
	if len(routes) == 0 {
		routes = models.DefaultDiscordRoutes()
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Discord{
		routes:      routes,
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		maxAttempts: attempts,
		retryUnit:   defaultRetryUnit,
		logger:      log,
		now:         time.Now,
	}
}

// route returns the first route whose prefix matches version.
func (d *Discord) route(version string) (models.DiscordRoute, bool) {
	for _, r := range d.routes {
		if strings.HasPrefix(version, r.VersionPrefix) {
			return r, true
		}
	}

	return models.DiscordRoute{}, false
}

func (d *Discord) Notify(ctx context.Context, server models.DiscoveredServer) error {
	route, ok := d.route(server.Version)

	url := route.EmptyURL
	if server.Active() {
		url = route.ActiveURL
	}

	if !ok || url == "" {
		d.logger.Debug().
			Str("version", server.Version).
			Int("players", server.PlayersOnline).
			Msg("No webhook configured")

		return nil
	}

	body, err := json.Marshal(d.buildPayload(&server, route))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	attempt := 0

	op := func() (struct{}, error) {
		attempt++

		if err := d.limiter.Wait(ctx); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		err := d.post(ctx, url, body, attempt)
		if err != nil {
			d.logger.Error().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", d.maxAttempts).
				Msg("Discord notification failed")
		}

		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(d.retryUnit)),
		backoff.WithMaxTries(uint(d.maxAttempts)),
		backoff.WithMaxElapsedTime(0))
	if err != nil {
		return fmt.Errorf("discord notification for %s: %w", server.Endpoint(), err)
	}

	d.logger.Debug().
		Str("server", server.Endpoint()).
		Bool("active", server.Active()).
		Msg("Sent Discord notification")

	return nil
}

// post sends one attempt. A 429 yields a RetryAfterError so the retry loop
// waits the server-provided delay, or 2*attempt units without one.
func (d *Discord) post(ctx context.Context, url string, body []byte, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build webhook request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait, ok := parseRetryAfter(resp.Header.Get("Retry-After"))
		if !ok {
			wait = time.Duration(2*attempt) * d.retryUnit
		}

		return fmt.Errorf("%w: %w", errRateLimited, &backoff.RetryAfterError{Duration: wait})
	default:
		return fmt.Errorf("%w: %d", errWebhookStatus, resp.StatusCode)
	}
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}

	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, false
	}

	return time.Duration(secs * float64(time.Second)), true
}

func (d *Discord) buildPayload(server *models.DiscoveredServer, route models.DiscordRoute) webhookPayload {
	statusText, statusEmoji, color := "Empty Server", "🔴", route.EmptyColor
	if server.Active() {
		statusText, statusEmoji, color = "Active Server", "🟢", route.ActiveColor
	}

	country := server.Country
	if country == "" {
		country = unknownCountry
	}

	return webhookPayload{Embeds: []embed{{
		Title: fmt.Sprintf("🎮 %s Found!", statusText),
		Color: color,
		Fields: []embedField{
			{Name: "🌐 IP Address", Value: server.Endpoint(), Inline: true},
			{Name: statusEmoji + " Players", Value: fmt.Sprintf("%d/%d", server.PlayersOnline, server.PlayersMax), Inline: true},
			{Name: "🌍 Country", Value: country, Inline: true},
			{Name: "📦 Version", Value: server.Version, Inline: true},
			{Name: "📝 Description", Value: embedDescription(server.Description)},
		},
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: footerText},
	}}}
}

// embedDescription caps the description at maxDescriptionBytes without
// splitting a UTF-8 sequence.
func embedDescription(s string) string {
	if s == "" {
		return noDescription
	}

	if len(s) <= maxDescriptionBytes {
		return s
	}

	cut := maxDescriptionBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
