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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &ScannerConfig{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 25565, cfg.Scanning.Port)
	assert.Equal(t, DefaultBlocksFile, cfg.BlocksFile)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, 0, cfg.Networking.BaseSourcePort)
	assert.Equal(t, 0, cfg.Stats.EventBuffer)
	assert.Len(t, cfg.Notify.Discord.Routes, 4)
	assert.NotNil(t, cfg.Logging)
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := &ScannerConfig{
		Scanning: ScanningConfig{Port: 19132, Workers: 2, MaxRangeSize: 100, ConsecutiveThreshold: 30, ChunkSize: 10},
		Stats:    StatsConfig{IntervalSeconds: 5, EventBuffer: 64},
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 19132, cfg.Scanning.Port)
	assert.Equal(t, 30, cfg.Scanning.ConsecutiveThreshold)
	assert.Equal(t, 64, cfg.Stats.EventBuffer)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScannerConfig)
		err    error
	}{
		{"port too large", func(c *ScannerConfig) { c.Scanning.Port = 70000 }, errInvalidPort},
		{"negative workers", func(c *ScannerConfig) { c.Scanning.Workers = -1 }, errInvalidWorkers},
		{"negative chunk", func(c *ScannerConfig) { c.Scanning.ChunkSize = -5 }, errInvalidChunkSize},
		{"negative timeout", func(c *ScannerConfig) { c.Timeouts.ConnectionMS = -1 }, errInvalidTimeout},
		{"negative buffer", func(c *ScannerConfig) { c.Stats.EventBuffer = -1 }, errInvalidEventBuffer},
		{
			"source ports overflow",
			func(c *ScannerConfig) {
				c.Scanning.Workers = 100
				c.Networking.BaseSourcePort = 40000
				c.Networking.PortRangePerWorker = 500
			},
			errSourcePortOverflow,
		},
		{
			"source range too narrow",
			func(c *ScannerConfig) {
				c.Networking.BaseSourcePort = 40000
				c.Networking.PortRangePerWorker = 100
			},
			errInvalidSourcePortRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScannerConfig()
			tt.mutate(cfg)

			require.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestSourcePortsFitExactly(t *testing.T) {
	cfg := DefaultScannerConfig()
	cfg.Scanning.Workers = 2
	cfg.Networking.PortRangePerWorker = 255
	// highest = base + 255 + 254
	cfg.Networking.BaseSourcePort = 65535 - 509

	require.NoError(t, cfg.Validate())

	cfg.Networking.BaseSourcePort++
	require.ErrorIs(t, cfg.Validate(), errSourcePortOverflow)
}

func TestFilterSensitiveFieldsHidesWebhooks(t *testing.T) {
	cfg := DefaultScannerConfig()
	cfg.Notify.Discord.Routes[0].ActiveURL = "https://discord.example/secret"

	out, err := FilterSensitiveFields(cfg)
	require.NoError(t, err)

	notify := out["notify"].(map[string]interface{})
	discord := notify["discord"].(map[string]interface{})
	routes := discord["routes"].([]interface{})
	route := routes[0].(map[string]interface{})

	assert.Equal(t, "1.21", route["version_prefix"])
	assert.NotContains(t, route, "active_url")
	assert.NotContains(t, route, "empty_url")
}

func TestFilterSensitiveFieldsRejectsScalars(t *testing.T) {
	_, err := FilterSensitiveFields(42)
	require.ErrorIs(t, err, errNotAStruct)
}
