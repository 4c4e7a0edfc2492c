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
	"context"
	"errors"

	"github.com/carverauto/craftradar/pkg/models"
)

// Multi sends every discovery to each notifier in order and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, server models.DiscoveredServer) error {
	var errs []error

	for _, n := range m {
		if err := n.Notify(ctx, server); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
