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

package logger_test

import (
	"errors"
	"time"

	"github.com/carverauto/craftradar/pkg/logger"
)

func ExampleNew() {
	config := &logger.Config{
		Level:  "debug",
		Output: "stdout",
		Format: "console",
	}

	log, err := logger.New(config, time.Now())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Close() }()

	log.Info().Str("component", "example").Msg("Logger initialized successfully")
}

func ExampleComponent() {
	base, err := logger.New(logger.DefaultConfig(), time.Now())
	if err != nil {
		panic(err)
	}

	scannerLog := logger.Component(base, "scanner")

	scannerLog.Info().
		Str("start", "203.0.113.1").
		Int("scanned", 4096).
		Msg("Range finished")

	scannerLog.Debug().
		Err(errors.New("connection refused")).
		Str("addr", "203.0.113.7").
		Msg("Ping failed")
}
