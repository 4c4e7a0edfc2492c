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

package scan

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBlocksSkipsCommentsAndMalformed(t *testing.T) {
	input := strings.Join([]string{
		"# residential ranges",
		"",
		"  203.0.113.0/24  ",
		"198.51.100.0/33",
		"198.51.100.0",
		"not-an-ip/8",
		"2001:db8::/32",
		"192.0.2.0/-1",
		"192.0.2.128/25",
		"8.0.0.0/0",
	}, "\n")

	blocks, err := LoadBlocks(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, blocks, 3)
	assert.Equal(t, "203.0.113.0/24", blocks[0].String())
	assert.Equal(t, Block{Base: 0xC0000280, Prefix: 25}, blocks[1])
	assert.Equal(t, uint8(0), blocks[2].Prefix)
}

func TestLoadBlocksFileMissingIsEmpty(t *testing.T) {
	blocks, err := LoadBlocksFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestLoadBlocksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.2.3.0/24\n"), 0o600))

	blocks, err := LoadBlocksFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Block{{Base: 0x01020300, Prefix: 24}}, blocks)
}

func TestBlockRangeMasksBase(t *testing.T) {
	b, ok := ParseBlock("10.1.2.3/16")
	require.True(t, ok)

	r := b.Range()
	assert.Equal(t, netip.MustParseAddr("10.1.0.0"), r.From())
	assert.Equal(t, netip.MustParseAddr("10.1.255.255"), r.To())
}

func TestAddrConversion(t *testing.T) {
	a := netip.MustParseAddr("192.0.2.1")
	assert.Equal(t, uint32(0xC0000201), AddrToUint32(a))
	assert.Equal(t, a, Uint32ToAddr(0xC0000201))
	assert.Equal(t, uint32(0), AddrToUint32(netip.MustParseAddr("::1")))
}

func TestAdvanceWrapsAndIsAssociative(t *testing.T) {
	assert.Equal(t, uint32(4), Advance(0xFFFFFFFF, 5))

	cases := []struct{ a, x, y uint32 }{
		{0, 1, 2},
		{0xFFFFFF00, 0x80, 0x100},
		{0x7FFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		{12345, 0, 0},
	}

	for _, c := range cases {
		assert.Equal(t, Advance(c.a, c.x+c.y), Advance(Advance(c.a, c.x), c.y))
	}
}
