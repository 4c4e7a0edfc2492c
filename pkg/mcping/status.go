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

package mcping

import (
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ServerStatus is the decoded status response. Description is kept raw
// because servers send either a plain string or a chat component.
type ServerStatus struct {
	Version     *Version        `json:"version"`
	Players     *Players        `json:"players"`
	Description json.RawMessage `json:"description"`
}

type Version struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type Players struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

// VersionName returns the advertised version name.
func (s *ServerStatus) VersionName() string {
	if s.Version == nil {
		return ""
	}

	return s.Version.Name
}

// DescriptionText flattens the description with ExtractDescription.
func (s *ServerStatus) DescriptionText() string {
	return ExtractDescription(s.Description)
}

func decodeStatus(payload []byte) (*ServerStatus, error) {
	if !utf8.Valid(payload) {
		return nil, protocolError(errInvalidUTF8)
	}

	var status ServerStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, protocolError(err)
	}

	if status.Version == nil || status.Players == nil {
		return nil, protocolError(errMissingFields)
	}

	return &status, nil
}

// ExtractDescription turns a description value into display text: the
// "text" field if present, otherwise the concatenated "text" of every
// "extra" element, otherwise the value itself. A bare JSON string is
// returned unquoted; null or absent yields "".
func ExtractDescription(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	desc := gjson.ParseBytes(raw)

	switch desc.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return desc.String()
	}

	if text := desc.Get("text"); text.Exists() {
		if text.Type != gjson.String {
			return ""
		}

		return text.String()
	}

	if extra := desc.Get("extra"); extra.IsArray() {
		var b strings.Builder

		extra.ForEach(func(_, part gjson.Result) bool {
			if t := part.Get("text"); t.Type == gjson.String {
				b.WriteString(t.String())
			}

			return true
		})

		return b.String()
	}

	return desc.Raw
}
