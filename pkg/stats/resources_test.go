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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSampler(t *testing.T) {
	sampler, err := NewProcessSampler()
	require.NoError(t, err)

	sample, err := sampler.Sample(context.Background())
	require.NoError(t, err)

	assert.Positive(t, sample.RSSBytes)
	assert.GreaterOrEqual(t, sample.HostMemPct, 0.0)
	assert.LessOrEqual(t, sample.HostMemPct, 100.0)
}
