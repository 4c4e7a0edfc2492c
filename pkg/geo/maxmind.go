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
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/carverauto/craftradar/pkg/logger"
)

const englishName = "en"

type countryRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

// MaxMind answers from a local GeoLite2 or GeoIP2 Country database.
type MaxMind struct {
	reader *maxminddb.Reader
	logger logger.Logger
}

// OpenMaxMind opens the database at path.
func OpenMaxMind(path string, log logger.Logger) (*MaxMind, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MaxMind database %s: %w", path, err)
	}

	return &MaxMind{reader: reader, logger: log}, nil
}

func (m *MaxMind) Country(_ context.Context, addr string) (string, bool) {
	name, err := m.lookup(addr)
	if err != nil {
		m.logger.Debug().Err(err).Str("address", addr).Msg("MaxMind lookup failed")
		return "", false
	}

	return name, true
}

func (m *MaxMind) lookup(addr string) (string, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return "", fmt.Errorf("%w: %q", errInvalidAddress, addr)
	}

	var rec countryRecord
	if err := m.reader.Lookup(ip, &rec); err != nil {
		return "", err
	}

	if name := rec.Country.Names[englishName]; name != "" {
		return name, nil
	}

	if rec.Country.ISOCode != "" {
		return rec.Country.ISOCode, nil
	}

	return "", errNoCountry
}

func (m *MaxMind) Close() error {
	return m.reader.Close()
}
