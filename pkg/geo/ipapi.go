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

package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/carverauto/craftradar/pkg/logger"
)

const (
	defaultIPAPITimeout = 2 * time.Second
	maxIPAPIBody        = 4 << 10
)

// IPAPI queries an ip-api.com compatible endpoint: GET <base><ip>?fields=country.
type IPAPI struct {
	base    string
	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

func NewIPAPI(base string, timeout time.Duration, client *http.Client, log logger.Logger) *IPAPI {
	if timeout <= 0 {
		timeout = defaultIPAPITimeout
	}

	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &IPAPI{base: base, client: client, timeout: timeout, logger: log}
}

func (a *IPAPI) Country(ctx context.Context, addr string) (string, bool) {
	country, err := a.fetch(ctx, addr)
	if err != nil {
		a.logger.Debug().Err(err).Str("address", addr).Msg("Geolocation request failed")
		return "", false
	}

	return country, true
}

func (a *IPAPI) fetch(ctx context.Context, addr string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := a.base + url.PathEscape(addr) + "?fields=country"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIPAPIBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	country := gjson.GetBytes(body, "country")
	if country.Type != gjson.String || country.Str == "" {
		return "", errNoCountry
	}

	return country.Str, nil
}
