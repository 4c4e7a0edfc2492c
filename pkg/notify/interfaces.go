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

// Package notify delivers discovered servers to external sinks.
package notify

//go:generate mockgen -destination=mock_notify.go -package=notify github.com/carverauto/craftradar/pkg/notify Notifier

import (
	"context"

	"github.com/carverauto/craftradar/pkg/models"
)

// Notifier delivers one discovery. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, server models.DiscoveredServer) error
}
