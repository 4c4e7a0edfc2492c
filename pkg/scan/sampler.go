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
	"math/rand/v2"
	"net/netip"
	"sync"
	"time"

	"go4.org/netipx"
)

// Sampler draws candidate start addresses. It is safe for concurrent use.
type Sampler struct {
	blocks   []Block
	excluded *netipx.IPSet

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler over blocks. A nil src seeds from the clock.
func NewSampler(blocks []Block, src rand.Source) *Sampler {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>32|now<<32)
	}

	return &Sampler{
		blocks:   blocks,
		excluded: fallbackExclusions(),
		rng:      rand.New(src),
	}
}

// fallbackExclusions covers the ranges FallbackAddress must never return:
// RFC1918, loopback and 0.0.0.0/8.
func fallbackExclusions() *netipx.IPSet {
	var b netipx.IPSetBuilder

	for _, p := range []string{"0.0.0.0/8", "10.0.0.0/8", "127.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		b.AddPrefix(netip.MustParsePrefix(p))
	}

	set, _ := b.IPSet()

	return set
}

// Blocks returns the number of loaded blocks.
func (s *Sampler) Blocks() int {
	return len(s.blocks)
}

// Sample picks a uniformly random block and an address within it, or a
// fallback address when no blocks are loaded.
func (s *Sampler) Sample() uint32 {
	if len(s.blocks) == 0 {
		return s.FallbackAddress()
	}

	s.mu.Lock()
	b := s.blocks[s.rng.IntN(len(s.blocks))]
	s.mu.Unlock()

	return s.RandomAddressInBlock(b.Base, b.Prefix)
}

// RandomAddressInBlock ORs a random non-zero host offset onto base. Blocks
// with at most one host bit always yield base+1.
func (s *Sampler) RandomAddressInBlock(base uint32, prefix uint8) uint32 {
	if prefix > maxPrefix {
		prefix = maxPrefix
	}

	hostBits := maxPrefix - uint(prefix)
	if hostBits <= 1 {
		return base + 1
	}

	// offset in [1, 2^h - 1]
	span := uint64(1)<<hostBits - 1

	s.mu.Lock()
	offset := 1 + s.rng.Uint64N(span)
	s.mu.Unlock()

	return base | uint32(offset)
}

// FallbackAddress draws public-looking unicast addresses until one lies
// outside the private, loopback and zero ranges.
func (s *Sampler) FallbackAddress() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		addr := uint32(1+s.rng.IntN(223))<<24 |
			uint32(s.rng.IntN(256))<<16 |
			uint32(s.rng.IntN(256))<<8 |
			uint32(1+s.rng.IntN(254))

		if !s.excluded.Contains(Uint32ToAddr(addr)) {
			return addr
		}
	}
}
