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

// Package scan samples IPv4 addresses and checks TCP reachability.
package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"go4.org/netipx"
)

const maxPrefix = 32

// Block is an IPv4 network block. Base is kept exactly as written in the
// source file, it is not masked to the prefix.
type Block struct {
	Base   uint32
	Prefix uint8
}

func (b Block) String() string {
	return fmt.Sprintf("%s/%d", Uint32ToAddr(b.Base), b.Prefix)
}

// Range returns the inclusive address range covered by the block.
func (b Block) Range() netipx.IPRange {
	return netipx.RangeOfPrefix(netip.PrefixFrom(Uint32ToAddr(b.Base), int(b.Prefix)).Masked())
}

// ParseBlock parses "a.b.c.d/n". It reports false for anything that is not
// an IPv4 address with a prefix of at most 32.
func ParseBlock(s string) (Block, bool) {
	addrStr, prefixStr, ok := strings.Cut(s, "/")
	if !ok {
		return Block{}, false
	}

	addr, err := netip.ParseAddr(addrStr)
	if err != nil || !addr.Is4() {
		return Block{}, false
	}

	prefix, err := strconv.ParseUint(prefixStr, 10, 8)
	if err != nil || prefix > maxPrefix {
		return Block{}, false
	}

	return Block{Base: AddrToUint32(addr), Prefix: uint8(prefix)}, true
}

// LoadBlocks reads newline-delimited CIDR blocks. Blank lines and lines
// starting with '#' are skipped; malformed lines are dropped.
func LoadBlocks(r io.Reader) ([]Block, error) {
	var blocks []Block

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if b, ok := ParseBlock(line); ok {
			blocks = append(blocks, b)
		}
	}

	if err := sc.Err(); err != nil {
		return blocks, fmt.Errorf("failed to read blocks: %w", err)
	}

	return blocks, nil
}

// LoadBlocksFile loads blocks from path. A missing file is not an error and
// yields no blocks, so callers fall back to FallbackAddress.
func LoadBlocksFile(path string) ([]Block, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open blocks file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return LoadBlocks(f)
}

// Uint32ToAddr converts a host-order address to netip.Addr.
func Uint32ToAddr(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// AddrToUint32 converts an IPv4 address to host order. IPv6 addresses yield 0.
func AddrToUint32(a netip.Addr) uint32 {
	if !a.Is4() {
		return 0
	}

	b := a.As4()

	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Advance adds offset to base with 32-bit wraparound.
func Advance(base, offset uint32) uint32 {
	return base + offset
}
