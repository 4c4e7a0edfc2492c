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
	"fmt"
	"io"
)

// MaxVarIntLen is the longest encoding of a 32-bit varint.
const MaxVarIntLen = 5

// AppendVarInt appends v in the protocol's varint form: 7-bit groups, least
// significant first, high bit set on every byte but the last. Negative values
// take the full five bytes.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)

	for u&^0x7F != 0 {
		dst = append(dst, byte(u&0x7F)|0x80)
		u >>= 7
	}

	return append(dst, byte(u))
}

// ReadVarInt decodes one varint. A value still continuing after five bytes
// is rejected, so a hostile stream cannot keep the reader going.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32

	for i := 0; i < MaxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		result |= uint32(b&0x7F) << (7 * i)

		if b&0x80 == 0 {
			return int32(result), nil
		}
	}

	return 0, fmt.Errorf("%w: more than %d bytes", errVarIntTooBig, MaxVarIntLen)
}
