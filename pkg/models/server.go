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

package models

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	summaryPrefix    = "[FOUND] "
	summarySeparator = " - "
	summaryFields    = 4
)

var (
	errNotASummary       = errors.New("not a [FOUND] line")
	errMalformedSummary  = errors.New("malformed [FOUND] line")
	errMalformedPlayers  = errors.New("malformed player count")
	errMalformedEndpoint = errors.New("malformed address:port")
)

// DiscoveredServer is the record handed to notifiers for every server that
// answered a status request.
type DiscoveredServer struct {
	Address       string    `json:"address"`
	Port          int       `json:"port"`
	PlayersOnline int       `json:"players_online"`
	PlayersMax    int       `json:"players_max"`
	Version       string    `json:"version"`
	Description   string    `json:"description"`
	Country       string    `json:"country,omitempty"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// Endpoint returns address:port.
func (s *DiscoveredServer) Endpoint() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// Active reports whether anyone was online when the server was pinged.
func (s *DiscoveredServer) Active() bool {
	return s.PlayersOnline > 0
}

// Summary renders the one-line form used in logs:
//
//	[FOUND] <ip>:<port> - <online>/<max> - <version> - <description>
func (s *DiscoveredServer) Summary() string {
	return summaryPrefix + s.summaryBody()
}

// TaggedSummary is Summary with an extra tag after [FOUND], e.g. "[FOUND][TEST] ...".
func (s *DiscoveredServer) TaggedSummary(tag string) string {
	return "[FOUND][" + tag + "] " + s.summaryBody()
}

func (s *DiscoveredServer) summaryBody() string {
	return fmt.Sprintf("%s:%d - %d/%d - %s - %s",
		s.Address, s.Port, s.PlayersOnline, s.PlayersMax, s.Version, s.Description)
}

// ParseSummary is the inverse of Summary. Everything after the third
// separator belongs to the description, which may itself contain " - ".
func ParseSummary(line string) (*DiscoveredServer, error) {
	content, ok := strings.CutPrefix(line, summaryPrefix)
	if !ok {
		return nil, errNotASummary
	}

	parts := strings.SplitN(content, summarySeparator, summaryFields)
	if len(parts) < summaryFields {
		return nil, errMalformedSummary
	}

	addr, portStr, ok := strings.Cut(parts[0], ":")
	if !ok || addr == "" || strings.Contains(portStr, ":") {
		return nil, fmt.Errorf("%w: %q", errMalformedEndpoint, parts[0])
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedEndpoint, err)
	}

	onlineStr, maxStr, ok := strings.Cut(parts[1], "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q", errMalformedPlayers, parts[1])
	}

	online, err := strconv.ParseUint(onlineStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedPlayers, err)
	}

	maxPlayers, err := strconv.ParseUint(maxStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedPlayers, err)
	}

	return &DiscoveredServer{
		Address:       addr,
		Port:          int(port),
		PlayersOnline: int(online),
		PlayersMax:    int(maxPlayers),
		Version:       parts[2],
		Description:   parts[3],
	}, nil
}
