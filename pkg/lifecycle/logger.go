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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/craftradar/pkg/logger"
)

const (
	// LogFileName is the name of the log file written inside the output directory.
	LogFileName = "log.txt"

	outputDirPerm = 0o755
)

// Environment bundles the process-wide pieces created at startup.
type Environment struct {
	Start  time.Time
	Logger *logger.ZeroLogger
}

// SetupEnvironment creates outputDir, builds the logger (stdout plus
// outputDir/log.txt) and tags it with the component name. Any failure here
// is fatal for the caller.
func SetupEnvironment(component, outputDir string, config *logger.Config, start time.Time) (*Environment, error) {
	if outputDir == "" {
		outputDir = "."
	}

	if err := os.MkdirAll(outputDir, outputDirPerm); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", outputDir, err)
	}

	if config == nil {
		config = logger.DefaultConfig()
	}

	cfg := *config
	if cfg.File == "" {
		cfg.File = filepath.Join(outputDir, LogFileName)
	}

	base, err := logger.New(&cfg, start)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	base.Debug().
		Str("component", component).
		Time("epoch", start).
		Msg("Logger initialized")

	return &Environment{Start: start, Logger: base}, nil
}

// Shutdown flushes the metrics pipeline and closes the log file.
func (e *Environment) Shutdown(ctx context.Context) error {
	var errs []error

	if err := logger.ShutdownMetrics(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down metrics: %w", err))
	}

	if e.Logger != nil {
		if err := e.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
	}

	return errors.Join(errs...)
}
