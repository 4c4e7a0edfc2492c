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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/carverauto/craftradar/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfigLoader loads configuration from environment variables.
// Nested struct fields are joined with underscores, using JSON tag names:
// CRAFTRADAR_SCANNING_WORKERS maps to config.Scanning.Workers.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader. A complete document in <prefix>CONFIG_JSON
// takes precedence over individual variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	e.logger.Debug().Msg("Loading configuration from environment variables")

	if doc := os.Getenv(e.prefix + "CONFIG_JSON"); doc != "" {
		if err := json.Unmarshal([]byte(doc), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	return e.Overlay(dst)
}

// Overlay sets every field of dst that has a matching environment variable
// and leaves the rest untouched.
func (e *EnvConfigLoader) Overlay(dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if n := e.loadStruct(v, e.prefix); n > 0 {
		e.logger.Info().Int("fields", n).Msg("Applied configuration from environment variables")
	}

	return nil
}

// loadStruct walks v and returns how many fields were set.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) int {
	t := v.Type()
	set := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		n, err := e.loadField(field, envName)
		if err != nil {
			// A bad value for one field does not abort the rest.
			e.logger.Warn().Str("env", envName).Err(err).Msg("Ignoring environment variable")

			continue
		}

		set += n
	}

	return set
}

func (e *EnvConfigLoader) loadField(field reflect.Value, envName string) (int, error) {
	switch {
	case field.Kind() == reflect.Struct:
		return e.loadStruct(field, envName+"_"), nil
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		// Only allocate the pointer when something underneath is set.
		target := reflect.New(field.Type().Elem())
		if !field.IsNil() {
			target.Elem().Set(field.Elem())
		}

		n := e.loadStruct(target.Elem(), envName+"_")
		if n > 0 {
			field.Set(target)
		}

		return n, nil
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return 0, nil
	}

	if err := setFromString(field, raw); err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", envName, err)
	}

	e.logger.Debug().Str("env", envName).Str("value", "[set]").Msg("Loaded value from environment variable")

	return 1, nil
}

// setFromString parses raw according to the field's kind. Slices of strings
// are comma separated; maps and other composite types are JSON.
func setFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return json.Unmarshal([]byte(raw), field.Addr().Interface())
		}

		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))

		for i, p := range parts {
			slice.Index(i).SetString(strings.TrimSpace(p))
		}

		field.Set(slice)
	case reflect.Ptr:
		target := reflect.New(field.Type().Elem())
		if err := setFromString(target.Elem(), raw); err != nil {
			return err
		}

		field.Set(target)
	default:
		return json.Unmarshal([]byte(raw), field.Addr().Interface())
	}

	return nil
}
