// SPDX-License-Identifier: AGPL-3.0-or-later
// hfdlobserver888 - Coordination core for a multi-headed HFDL receiver fleet
// Copyright (C) 2024-2026 HFDL Observer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/hfdl-observer/hfdlobserver888>

package allocation

import (
	"sort"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/metrics"
)

// Range is an inclusive kHz range excluded from allocation (spec.md §4.6).
type Range struct {
	Lo int
	Hi int
}

func (r Range) contains(freq int) bool {
	return freq >= r.Lo && freq <= r.Hi
}

// Allocator packs ranked, per-station frequency sets into slot-width
// constrained allocations using first-fit-decreasing by station priority
// (spec.md §4.6).
type Allocator struct {
	rankedStationIDs   []uint
	ignoredFrequencies []Range
	slotWidth          int
	metrics            *metrics.Metrics
}

// New creates an Allocator. rankedStationIDs gives station priority,
// highest first; stations not present are never allocated. slotWidth is
// the per-slot sample-rate ceiling in Hz.
func New(rankedStationIDs []uint, ignoredFrequencies []Range, slotWidth int) *Allocator {
	return &Allocator{
		rankedStationIDs:   append([]uint(nil), rankedStationIDs...),
		ignoredFrequencies: append([]Range(nil), ignoredFrequencies...),
		slotWidth:          slotWidth,
	}
}

// SetMetrics attaches m so future Allocate calls record run count and
// duration. An Allocator with no metrics attached (the default) records
// nothing; m may be nil.
func (a *Allocator) SetMetrics(m *metrics.Metrics) {
	a.metrics = m
}

// Allocate packs stationFrequencies into the minimum number of
// ceiling-constrained allocations, in station-priority order. The full list
// is returned; callers needing only the top N (e.g. the conductor
// truncating to len(proxies)) slice the result themselves (spec.md §4.6 step 5).
func (a *Allocator) Allocate(stationFrequencies map[uint][]int) []*Allocation {
	start := time.Now()
	defer func() { a.metrics.RecordAllocatorRun(time.Since(start)) }()

	var allocations []*Allocation

	for _, stationID := range a.rankedStationIDs {
		freqs := append([]int(nil), stationFrequencies[stationID]...)
		sort.Ints(freqs)

		for _, freq := range freqs {
			if a.isIgnored(freq) {
				continue
			}

			placed := false
			for _, alloc := range allocations {
				if alloc.MaybeAdd(freq) {
					placed = true
					break
				}
			}
			if !placed {
				alloc := New(a.slotWidth)
				alloc.MaybeAdd(freq)
				allocations = append(allocations, alloc)
			}
		}
	}

	return allocations
}

func (a *Allocator) isIgnored(freq int) bool {
	for _, r := range a.ignoredFrequencies {
		if r.contains(freq) {
			return true
		}
	}
	return false
}
