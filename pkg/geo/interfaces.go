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

// Package geo resolves the country of a discovered server address.
package geo

//go:generate mockgen -destination=mock_geo.go -package=geo github.com/carverauto/craftradar/pkg/geo Locator

import "context"

// Locator resolves an IPv4 address to a country name. The boolean is false
// when the locator has no answer; lookup failures are not reported as errors
// because a missing country never blocks a notification.
type Locator interface {
	Country(ctx context.Context, addr string) (string, bool)
}
