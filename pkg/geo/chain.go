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

import "context"

// Chain asks each locator in turn and returns the first answer.
type Chain []Locator

func (c Chain) Country(ctx context.Context, addr string) (string, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}

		if ctx.Err() != nil {
			return "", false
		}

		if country, ok := l.Country(ctx, addr); ok {
			return country, true
		}
	}

	return "", false
}
