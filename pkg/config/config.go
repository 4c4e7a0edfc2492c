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

// Package config loads JSON configuration from a file or the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carverauto/craftradar/pkg/logger"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errConfigPathRequired  = errors.New("config path is required for CONFIG_SOURCE=file")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every environment variable the loaders read.
	DefaultEnvPrefix = "CRAFTRADAR_"
)

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	envPrefix     string
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader.
// If log is nil, a warn-level stderr logger is used.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = createBasicLogger()
	}

	prefix := os.Getenv("CONFIG_ENV_PREFIX")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	return &Config{
		defaultLoader: &FileConfigLoader{},
		envPrefix:     prefix,
		logger:        log,
	}
}

// createBasicLogger creates a simple logger for config loading, before the
// configured logger exists.
func createBasicLogger() logger.Logger {
	l, err := logger.New(&logger.Config{Level: "warn", Output: "stderr"}, time.Now())
	if err != nil {
		return logger.NewTestLogger()
	}

	return l
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration and validates it.
//
// CONFIG_SOURCE selects the loader: "file" (the default) reads path and then
// overlays any prefixed environment variables; "env" reads only the
// environment.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if err := c.loadWithSource(ctx, path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}

func (c *Config) loadWithSource(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))
	envLoader := NewEnvConfigLoader(c.logger, c.envPrefix)

	switch source {
	case configSourceEnv:
		return envLoader.Load(ctx, path, cfg)
	case configSourceFile, "":
		if path == "" {
			return errConfigPathRequired
		}

		if err := c.defaultLoader.Load(ctx, path, cfg); err != nil {
			return err
		}

		c.logger.Debug().Str("path", path).Msg("Loaded configuration file")

		return envLoader.Overlay(cfg)
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}
}
