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

package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/craftradar/pkg/logger"
)

func TestSetupEnvironmentCreatesOutputDirAndLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")

	env, err := SetupEnvironment("test", dir, &logger.Config{Level: "info", Output: "stderr"}, time.Now())
	require.NoError(t, err)

	env.Logger.Info().Msg("ready")
	require.NoError(t, env.Shutdown(context.Background()))

	info, err := os.Stat(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSetupEnvironmentFailsOnUnusableOutputDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := SetupEnvironment("test", filepath.Join(blocker, "out"), nil, time.Now())
	require.Error(t, err)
}
