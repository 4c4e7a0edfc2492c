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

package stats

//go:generate mockgen -destination=mock_stats.go -package=stats github.com/carverauto/craftradar/pkg/stats Clock,Ticker,Dispatcher,ResourceSampler

import (
	"context"
	"time"

	"github.com/carverauto/craftradar/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Dispatcher accepts discovered servers for asynchronous delivery. Submit
// must not block; it reports false when the server was dropped.
type Dispatcher interface {
	Submit(server *models.DiscoveredServer) bool
}

// ResourceSampler reports the process's resource usage.
type ResourceSampler interface {
	Sample(ctx context.Context) (ResourceSample, error)
}
