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

package scanner

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/carverauto/craftradar/pkg/scan"
)

type stopReason string

const (
	stopMaxRange     stopReason = "max_range"
	stopUnproductive stopReason = "unproductive"
	stopCancelled    stopReason = "cancelled"
)

// workerState is owned by a single worker goroutine.
type workerState struct {
	index        int
	current      uint32
	scanned      int
	found        int
	unproductive int
	ports        *scan.SourcePorts
}

type rangeResult struct {
	start   uint32
	scanned int
	found   int
	elapsed time.Duration
	stop    stopReason
}

func (s *Scanner) runWorker(ctx context.Context, index int) error {
	ports, err := scan.NewSourcePorts(s.cfg.BaseSourcePort, index, s.cfg.PortRangePerWorker)
	if err != nil {
		return fmt.Errorf("worker %d: %w", index+1, err)
	}

	st := &workerState{index: index, ports: ports}

	for ctx.Err() == nil {
		start := s.sampler.Sample()

		s.logger.Debug().
			Int("worker", index+1).
			Stringer("start", scan.Uint32ToAddr(start)).
			Msg("New start address")

		s.logRange(index, s.scanRange(ctx, st, start))
	}

	return nil
}

// scanRange scans forward from start until the range is exhausted, the
// unproductive counter reaches the threshold, or ctx is cancelled.
func (s *Scanner) scanRange(ctx context.Context, st *workerState, start uint32) rangeResult {
	began := s.now()

	st.current = start
	st.scanned = 0
	st.found = 0
	st.unproductive = 0

	reason := stopMaxRange

	for st.scanned < s.cfg.MaxRangeSize && st.unproductive < s.cfg.ConsecutiveThreshold {
		if ctx.Err() != nil {
			reason = stopCancelled

			break
		}

		chunk := min(s.cfg.ChunkSize, s.cfg.MaxRangeSize-st.scanned)

		open := s.probeChunk(ctx, st, chunk)
		found := s.handshakeChunk(ctx, st, open)

		s.bus.Publish(Event{Kind: EventAddressesScanned, Count: chunk})

		// An open port resets the counter even when no handshake succeeded.
		if len(open) == 0 && found == 0 {
			st.unproductive += chunk
		} else {
			st.unproductive = 0
		}

		st.found += found
		st.current = scan.Advance(st.current, uint32(chunk))
		st.scanned += chunk
	}

	if reason != stopCancelled && st.scanned < s.cfg.MaxRangeSize {
		reason = stopUnproductive
	}

	return rangeResult{
		start:   start,
		scanned: st.scanned,
		found:   st.found,
		elapsed: s.now().Sub(began),
		stop:    reason,
	}
}

// probeChunk probes every address of the chunk concurrently and returns the
// open ones in address order, publishing PortOpen for each.
func (s *Scanner) probeChunk(ctx context.Context, st *workerState, chunk int) []netip.Addr {
	results := make([]bool, chunk)
	addrs := make([]netip.Addr, chunk)

	var wg sync.WaitGroup

	for i := 0; i < chunk; i++ {
		addrs[i] = scan.Uint32ToAddr(scan.Advance(st.current, uint32(i)))
		src := st.ports.Next()

		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = s.prober.Probe(ctx, addrs[i], s.cfg.Port, src, s.cfg.ProbeTimeout)
		}()
	}

	wg.Wait()

	var open []netip.Addr

	for i, ok := range results {
		if !ok {
			continue
		}

		open = append(open, addrs[i])
		s.bus.Publish(Event{Kind: EventPortOpen, Address: addrs[i]})
	}

	return open
}

// handshakeChunk pings exactly the open addresses and returns how many
// answered with a valid status, publishing ServerFound for each.
func (s *Scanner) handshakeChunk(ctx context.Context, st *workerState, open []netip.Addr) int {
	if len(open) == 0 {
		return 0
	}

	found := make([]*Event, len(open))

	var wg sync.WaitGroup

	for i, addr := range open {
		src := st.ports.Next()

		wg.Add(1)

		go func() {
			defer wg.Done()

			status, err := s.pinger.Ping(ctx, addr, s.cfg.Port, src)
			if err != nil {
				s.logger.Trace().Stringer("address", addr).Err(err).Msg("Handshake failed")

				return
			}

			found[i] = &Event{
				Kind:    EventServerFound,
				Address: addr,
				Server:  discovered(addr, s.cfg.Port, status, s.now()),
			}
		}()
	}

	wg.Wait()

	n := 0

	for _, ev := range found {
		if ev == nil {
			continue
		}

		n++

		s.bus.Publish(*ev)
	}

	return n
}

func (s *Scanner) logRange(index int, r rangeResult) {
	if r.scanned == 0 {
		return
	}

	end := scan.Advance(r.start, uint32(r.scanned-1))

	ev := s.logger.Debug().
		Int("worker", index+1).
		Stringer("start", scan.Uint32ToAddr(r.start)).
		Stringer("end", scan.Uint32ToAddr(end)).
		Int("scanned", r.scanned).
		Int("found", r.found).
		Dur("elapsed", r.elapsed).
		Float64("scans_per_minute", perMinute(r.scanned, r.elapsed)).
		Str("stop", string(r.stop))

	if r.found > 0 {
		ev.Float64("density_pct", float64(r.found)/float64(r.scanned)*100).Msg("Range complete with servers")

		return
	}

	ev.Msg("Range complete")
}

// perMinute scales count over whole elapsed seconds; under one second the
// raw count is returned.
func perMinute(count int, elapsed time.Duration) float64 {
	secs := int64(elapsed / time.Second)
	if secs <= 0 {
		return float64(count)
	}

	return float64(count) * 60 / float64(secs)
}
