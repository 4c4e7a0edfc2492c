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

const (
	handshakePacketID  = 0x00
	nextStateStatus    = 0x01
	handshakeFixedSize = 16
)

// statusRequest is the complete status request frame: length 1, packet id 0.
var statusRequest = []byte{0x01, 0x00}

// HandshakeFrame builds the length-prefixed handshake that switches the
// connection into the status state.
func HandshakeFrame(host string, port uint16, protocolVersion int32) []byte {
	body := make([]byte, 0, handshakeFixedSize+len(host))
	body = append(body, handshakePacketID)
	body = AppendVarInt(body, protocolVersion)
	body = AppendVarInt(body, int32(len(host)))
	body = append(body, host...)
	body = append(body, byte(port>>8), byte(port))
	body = append(body, nextStateStatus)

	frame := make([]byte, 0, len(body)+MaxVarIntLen)
	frame = AppendVarInt(frame, int32(len(body)))

	return append(frame, body...)
}

// StatusRequest returns a copy of the status request frame.
func StatusRequest() []byte {
	return append([]byte(nil), statusRequest...)
}
