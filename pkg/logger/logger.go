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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	outputStdout = "stdout"
	outputStderr = "stderr"

	formatJSON    = "json"
	formatConsole = "console"
)

var errUnknownFormat = errors.New("unknown log format")

type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	Format     string `json:"format" yaml:"format"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
	// File, when set, receives a JSON copy of every line. Any previous
	// file at that path is removed when the logger is built.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ZeroLogger implements Logger on top of a zerolog.Logger and owns the
// optional log file.
type ZeroLogger struct {
	logger zerolog.Logger
	file   *os.File
}

var _ Logger = (*ZeroLogger)(nil)

// New builds a logger from config. Every line carries an "uptime" field
// measured from start, which the caller captures once at process start.
func New(config *Config, start time.Time) (*ZeroLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := parseLevel(config)
	if err != nil {
		return nil, err
	}

	console, err := consoleWriter(config)
	if err != nil {
		return nil, err
	}

	writers := []io.Writer{console}

	var file *os.File

	if config.File != "" {
		if err := os.Remove(config.File); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove old log file %s: %w", config.File, err)
		}

		file, err = os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.File, err)
		}

		writers = append(writers, file)
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	zlog := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		Hook(uptimeHook{start: start}).
		With().
		Timestamp().
		Logger()

	return &ZeroLogger{logger: zlog, file: file}, nil
}

func parseLevel(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	return level, nil
}

func consoleWriter(config *Config) (io.Writer, error) {
	var out io.Writer = os.Stdout

	if config.Output == outputStderr {
		out = os.Stderr
	}

	switch config.Format {
	case "", formatJSON:
		return out, nil
	case formatConsole:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownFormat, config.Format)
	}
}

// uptimeHook stamps each event with the time elapsed since process start.
type uptimeHook struct {
	start time.Time
}

func (h uptimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("uptime", FormatUptime(time.Since(h.start)))
}

// FormatUptime renders d as HH:MM:SS; hours are not wrapped at 24.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	secs := int64(d / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Close flushes and closes the log file, if any.
func (l *ZeroLogger) Close() error {
	if l.file == nil {
		return nil
	}

	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()

		return err
	}

	return l.file.Close()
}

func (l *ZeroLogger) Trace() *zerolog.Event {
	return l.logger.Trace()
}

func (l *ZeroLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

func (l *ZeroLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ZeroLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ZeroLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *ZeroLogger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func (l *ZeroLogger) Panic() *zerolog.Event {
	return l.logger.Panic()
}

func (l *ZeroLogger) With() zerolog.Context {
	return l.logger.With()
}

func (l *ZeroLogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *ZeroLogger) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *ZeroLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *ZeroLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

// Component returns a Logger that tags every line with the component name.
func Component(base Logger, component string) Logger {
	return &ZeroLogger{logger: base.WithComponent(component)}
}
