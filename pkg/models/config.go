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
	"time"

	"github.com/carverauto/craftradar/pkg/logger"
)

const (
	maxPort             = 65535
	sourcePortCycle     = 255
	DefaultBlocksFile   = "assets/ips.txt"
	DefaultOutputDir    = "output"
	DefaultIPAPIBaseURL = "http://ip-api.com/json/"
	DefaultNATSSubject  = "craftradar.servers.discovered"
)

var (
	errInvalidPort             = errors.New("scanning.port must be between 1 and 65535")
	errInvalidWorkers          = errors.New("scanning.workers must be at least 1")
	errInvalidChunkSize        = errors.New("scanning.chunk_size must be at least 1")
	errInvalidMaxRangeSize     = errors.New("scanning.max_range_size must be at least 1")
	errInvalidThreshold        = errors.New("scanning.consecutive_threshold must be at least 1")
	errInvalidTimeout          = errors.New("timeouts must be positive")
	errInvalidStatsInterval    = errors.New("stats.interval_seconds must be at least 1")
	errInvalidEventBuffer      = errors.New("stats.event_buffer must not be negative")
	errSourcePortOverflow      = errors.New("source port range exceeds 65535")
	errInvalidSourcePortRange  = errors.New("networking.port_range_per_worker must be at least 255 when source ports are bound")
	errInvalidMaxResponseBytes = errors.New("protocol.max_response_bytes must be positive")
	errInvalidNotifyConfig     = errors.New("notify.workers and notify.queue_size must be positive")
)

// ScannerConfig is the top-level configuration of the scanner binary.
type ScannerConfig struct {
	Scanning    ScanningConfig        `json:"scanning"`
	Timeouts    TimeoutsConfig        `json:"timeouts"`
	Networking  NetworkingConfig      `json:"networking"`
	Protocol    ProtocolConfig        `json:"protocol"`
	TestServers TestServersConfig     `json:"test_servers"`
	Stats       StatsConfig           `json:"stats"`
	BlocksFile  string                `json:"blocks_file"`
	OutputDir   string                `json:"output_dir"`
	Logging     *logger.Config        `json:"logging,omitempty"`
	Notify      NotifyConfig          `json:"notify"`
	Geo         GeoConfig             `json:"geo"`
	Metrics     *logger.MetricsConfig `json:"metrics,omitempty"`
}

type ScanningConfig struct {
	Port                 int `json:"port"`
	Workers              int `json:"workers"`
	MaxRangeSize         int `json:"max_range_size"`
	ConsecutiveThreshold int `json:"consecutive_threshold"`
	ChunkSize            int `json:"chunk_size"`
}

// TimeoutsConfig holds the three independent per-operation timeouts in milliseconds.
type TimeoutsConfig struct {
	PortCheckMS        int `json:"port_check_ms"`
	ConnectionMS       int `json:"connection_ms"`
	ProtocolResponseMS int `json:"protocol_response_ms"`
}

func (t TimeoutsConfig) PortCheck() time.Duration {
	return time.Duration(t.PortCheckMS) * time.Millisecond
}

func (t TimeoutsConfig) Connection() time.Duration {
	return time.Duration(t.ConnectionMS) * time.Millisecond
}

func (t TimeoutsConfig) ProtocolResponse() time.Duration {
	return time.Duration(t.ProtocolResponseMS) * time.Millisecond
}

// NetworkingConfig controls source-port binding. A zero BaseSourcePort lets
// the kernel pick ephemeral ports.
type NetworkingConfig struct {
	BaseSourcePort     int `json:"base_source_port"`
	PortRangePerWorker int `json:"port_range_per_worker"`
}

type ProtocolConfig struct {
	Version          int `json:"version"`
	MaxResponseBytes int `json:"max_response_bytes"`
}

type TestServersConfig struct {
	Addresses []string `json:"addresses"`
}

// StatsConfig configures reporting. EventBuffer 0 selects an unbounded event
// queue; any positive value bounds it.
type StatsConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
	EventBuffer     int `json:"event_buffer"`
}

func (s StatsConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

type NotifyConfig struct {
	Workers   int           `json:"workers"`
	QueueSize int           `json:"queue_size"`
	TimeoutMS int           `json:"timeout_ms"`
	Discord   DiscordConfig `json:"discord"`
	NATS      NATSConfig    `json:"nats"`
}

func (n NotifyConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutMS) * time.Millisecond
}

// DiscordConfig configures webhook delivery. Routes are matched in order by
// version prefix; a route with an empty prefix matches everything.
type DiscordConfig struct {
	Enabled           bool           `json:"enabled"`
	Routes            []DiscordRoute `json:"routes"`
	MaxAttempts       int            `json:"max_attempts"`
	RequestsPerSecond float64        `json:"requests_per_second"`
}

type DiscordRoute struct {
	VersionPrefix string `json:"version_prefix"`
	Label         string `json:"label"`
	ActiveURL     string `json:"active_url" sensitive:"true"`
	EmptyURL      string `json:"empty_url" sensitive:"true"`
	ActiveColor   int    `json:"active_color"`
	EmptyColor    int    `json:"empty_color"`
}

// DefaultDiscordRoutes returns the stock routing table with no webhook URLs set.
func DefaultDiscordRoutes() []DiscordRoute {
	return []DiscordRoute{
		{VersionPrefix: "1.21", Label: "1.21", ActiveColor: 0x00ff00, EmptyColor: 0x004400},
		{VersionPrefix: "1.20", Label: "1.20", ActiveColor: 0x0099ff, EmptyColor: 0x003366},
		{VersionPrefix: "1.19", Label: "1.19", ActiveColor: 0xffaa00, EmptyColor: 0x664400},
		{VersionPrefix: "", Label: "other", ActiveColor: 0xff0066, EmptyColor: 0x660033},
	}
}

// NATSConfig configures the NATS notifier. A non-empty Stream publishes via JetStream.
type NATSConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Subject string `json:"subject"`
	Stream  string `json:"stream"`
	Source  string `json:"source"`
	Creds   string `json:"creds_file" sensitive:"true"`
}

type GeoConfig struct {
	MaxMindDB    string `json:"maxmind_db"`
	HTTPEnabled  bool   `json:"http_enabled"`
	HTTPEndpoint string `json:"http_endpoint"`
	TimeoutMS    int    `json:"timeout_ms"`
}

func (g GeoConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// DefaultScannerConfig returns the configuration used for any field left unset.
func DefaultScannerConfig() *ScannerConfig {
	cfg := &ScannerConfig{}
	cfg.applyDefaults()

	return cfg
}

func (c *ScannerConfig) applyDefaults() {
	setDefault(&c.Scanning.Port, 25565)
	setDefault(&c.Scanning.Workers, 64)
	setDefault(&c.Scanning.MaxRangeSize, 4096)
	setDefault(&c.Scanning.ConsecutiveThreshold, 512)
	setDefault(&c.Scanning.ChunkSize, 128)

	setDefault(&c.Timeouts.PortCheckMS, 300)
	setDefault(&c.Timeouts.ConnectionMS, 1500)
	setDefault(&c.Timeouts.ProtocolResponseMS, 3000)

	setDefault(&c.Networking.PortRangePerWorker, sourcePortCycle)

	setDefault(&c.Protocol.Version, 767)
	setDefault(&c.Protocol.MaxResponseBytes, 64*1024)

	setDefault(&c.Stats.IntervalSeconds, 30)

	if c.BlocksFile == "" {
		c.BlocksFile = DefaultBlocksFile
	}

	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	setDefault(&c.Notify.Workers, 4)
	setDefault(&c.Notify.QueueSize, 256)
	setDefault(&c.Notify.TimeoutMS, 10000)
	setDefault(&c.Notify.Discord.MaxAttempts, 3)

	if c.Notify.Discord.RequestsPerSecond == 0 {
		c.Notify.Discord.RequestsPerSecond = 1
	}

	if len(c.Notify.Discord.Routes) == 0 {
		c.Notify.Discord.Routes = DefaultDiscordRoutes()
	}

	if c.Notify.NATS.Subject == "" {
		c.Notify.NATS.Subject = DefaultNATSSubject
	}

	if c.Notify.NATS.Source == "" {
		c.Notify.NATS.Source = "craftradar"
	}

	if c.Geo.HTTPEndpoint == "" {
		c.Geo.HTTPEndpoint = DefaultIPAPIBaseURL
	}

	setDefault(&c.Geo.TimeoutMS, 2000)
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// Validate fills unset fields with defaults and rejects configurations the
// scanner cannot run with.
func (c *ScannerConfig) Validate() error {
	c.applyDefaults()

	s := c.Scanning

	switch {
	case s.Port < 1 || s.Port > maxPort:
		return errInvalidPort
	case s.Workers < 1:
		return errInvalidWorkers
	case s.ChunkSize < 1:
		return errInvalidChunkSize
	case s.MaxRangeSize < 1:
		return errInvalidMaxRangeSize
	case s.ConsecutiveThreshold < 1:
		return errInvalidThreshold
	}

	if c.Timeouts.PortCheckMS < 1 || c.Timeouts.ConnectionMS < 1 || c.Timeouts.ProtocolResponseMS < 1 {
		return errInvalidTimeout
	}

	if c.Stats.IntervalSeconds < 1 {
		return errInvalidStatsInterval
	}

	if c.Stats.EventBuffer < 0 {
		return errInvalidEventBuffer
	}

	if c.Protocol.MaxResponseBytes < 1 {
		return errInvalidMaxResponseBytes
	}

	if c.Notify.Workers < 1 || c.Notify.QueueSize < 1 {
		return errInvalidNotifyConfig
	}

	return c.validateSourcePorts()
}

func (c *ScannerConfig) validateSourcePorts() error {
	n := c.Networking
	if n.BaseSourcePort == 0 {
		return nil
	}

	if n.PortRangePerWorker < sourcePortCycle {
		return errInvalidSourcePortRange
	}

	highest := n.BaseSourcePort + (c.Scanning.Workers-1)*n.PortRangePerWorker + sourcePortCycle - 1
	if n.BaseSourcePort < 0 || highest > maxPort {
		return fmt.Errorf("%w: base %d, %d workers, range %d reaches %d",
			errSourcePortOverflow, n.BaseSourcePort, c.Scanning.Workers, n.PortRangePerWorker, highest)
	}

	return nil
}
