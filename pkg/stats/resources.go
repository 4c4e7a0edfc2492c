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

package stats

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceSample is a point-in-time view of process resource usage. Open
// descriptors matter most: every in-flight probe holds one.
type ResourceSample struct {
	RSSBytes   uint64
	OpenFDs    int32
	HostMemPct float64
}

// ProcessSampler samples the current process with gopsutil.
type ProcessSampler struct {
	proc *process.Process
}

// NewProcessSampler returns a sampler for the running process.
func NewProcessSampler() (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open process handle: %w", err)
	}

	return &ProcessSampler{proc: proc}, nil
}

// Sample reads RSS, descriptor count and host memory usage. A descriptor
// count the platform cannot provide is reported as -1.
func (p *ProcessSampler) Sample(ctx context.Context) (ResourceSample, error) {
	memInfo, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ResourceSample{}, fmt.Errorf("failed to read process memory: %w", err)
	}

	sample := ResourceSample{RSSBytes: memInfo.RSS, OpenFDs: -1}

	if fds, err := p.proc.NumFDsWithContext(ctx); err == nil {
		sample.OpenFDs = fds
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return sample, fmt.Errorf("failed to read host memory: %w", err)
	}

	sample.HostMemPct = vm.UsedPercent

	return sample, nil
}
