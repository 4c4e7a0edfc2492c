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

package scanner

//go:generate mockgen -destination=mock_scanner.go -package=scanner github.com/carverauto/craftradar/pkg/scanner Prober,Pinger,AddressSource

import (
	"context"
	"net/netip"
	"time"

	"github.com/carverauto/craftradar/pkg/mcping"
)

// Prober is a boolean-only reachability check.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr, port, sourcePort uint16, timeout time.Duration) bool
}

// Pinger performs the status handshake against an open port.
type Pinger interface {
	Ping(ctx context.Context, addr netip.Addr, port, sourcePort uint16) (*mcping.ServerStatus, error)
}

// AddressSource yields range start addresses.
type AddressSource interface {
	Sample() uint32
}
