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

import "fmt"

// SourcePortCycle is how many consecutive source ports a worker rotates through.
const SourcePortCycle = 255

const maxPort = 65535

// SourcePorts hands out a worker's local ports cyclically:
// start + counter%255, where start = base + workerIndex*rangePerWorker.
// A zero value (or a zero base) disables binding and always returns 0.
// Not safe for concurrent use; each worker owns one.
type SourcePorts struct {
	start   uint16
	counter uint32
}

// NewSourcePorts returns the rotation for one worker. base 0 disables
// source-port binding.
func NewSourcePorts(base, workerIndex, rangePerWorker int) (*SourcePorts, error) {
	if base == 0 {
		return &SourcePorts{}, nil
	}

	if base < 0 || workerIndex < 0 || rangePerWorker < 0 {
		return nil, ErrInvalidWorkerIndex
	}

	start := base + workerIndex*rangePerWorker
	if start+SourcePortCycle-1 > maxPort {
		return nil, fmt.Errorf("%w: worker %d starts at %d", ErrSourcePortOverflow, workerIndex, start)
	}

	return &SourcePorts{start: uint16(start)}, nil
}

// Enabled reports whether Next returns real ports.
func (p *SourcePorts) Enabled() bool {
	return p.start != 0
}

// Next returns the next port in the rotation, or 0 when binding is disabled.
func (p *SourcePorts) Next() uint16 {
	if p.start == 0 {
		return 0
	}

	port := p.start + uint16(p.counter%SourcePortCycle)
	p.counter++

	return port
}
