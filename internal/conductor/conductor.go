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

// Package conductor implements the reconciliation loop (spec.md §4.8) that
// matches desired allocations against receiver proxies and decides which
// proxies actually need a new listen command.
package conductor

import (
	"log/slog"

	"github.com/hfdl-observer/hfdlobserver888/internal/allocation"
	"github.com/hfdl-observer/hfdlobserver888/internal/metrics"
	"github.com/hfdl-observer/hfdlobserver888/internal/receiver"
)

// FrequencySource supplies the per-station active frequency sets the
// allocator packs. *station.Aggregator satisfies this.
type FrequencySource interface {
	StationFrequencies() map[uint][]int
}

// Conductor owns the allocator and the fleet of receiver proxies, and
// reconciles the two on demand (spec.md §4.8).
type Conductor struct {
	allocator *allocation.Allocator
	source    FrequencySource
	proxies   []*receiver.Proxy
	metrics   *metrics.Metrics
}

// New creates a Conductor over the given allocator, frequency source, and
// receiver proxies, in priority order (spec.md §9(c): proxies beyond the
// number of desired allocations are simply left idle; desired allocations
// beyond the number of proxies are logged as under-provisioned and dropped,
// never silently truncated without a trace).
func New(allocator *allocation.Allocator, source FrequencySource, proxies []*receiver.Proxy) *Conductor {
	return &Conductor{allocator: allocator, source: source, proxies: proxies}
}

// SetMetrics attaches m so future Reconcile calls record the active
// allocation count. A Conductor with no metrics attached (the default)
// records nothing; m may be nil.
func (c *Conductor) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Reconcile runs one pass of the algorithm described in spec.md §4.8:
//  1. compute desired allocations from current station frequencies
//  2. truncate desired to the number of available proxies
//  3. match each desired allocation against a proxy that already covers it
//  4. zip the remaining (unmatched) desired allocations with the remaining
//     (uncovering) proxies, in order, and publish a listen command for each
//
// A proxy whose current allocation already covers a desired allocation is
// left untouched — no redundant listen command is published (spec.md §4.7,
// scenario S4).
func (c *Conductor) Reconcile() {
	desired := c.allocator.Allocate(c.source.StationFrequencies())

	if len(desired) > len(c.proxies) {
		slog.Warn("fewer receivers than desired allocations",
			"desired", len(desired), "receivers", len(c.proxies), "dropped", len(desired)-len(c.proxies))
		desired = desired[:len(c.proxies)]
	}
	c.metrics.SetActiveAllocations(len(desired))

	needsStart, available := match(desired, c.proxies)

	started := 0
	for i, alloc := range needsStart {
		if i >= len(available) {
			break
		}
		available[i].Listen(alloc.Frequencies())
		started++
	}

	slog.Info("reconciled allocations",
		"desired", len(desired), "matched", len(desired)-len(needsStart), "started", started)
}

// match partitions desired allocations into those already covered by some
// proxy (requiring no action) and those that still need a listen command,
// and returns the proxies left over after matching (spec.md §4.8 steps 3-4).
func match(desired []*allocation.Allocation, proxies []*receiver.Proxy) (needsStart []*allocation.Allocation, available []*receiver.Proxy) {
	claimed := make(map[*receiver.Proxy]bool, len(proxies))

	for _, alloc := range desired {
		matched := false
		for _, p := range proxies {
			if claimed[p] {
				continue
			}
			if p.Covers(alloc.Frequencies()) {
				claimed[p] = true
				matched = true
				break
			}
		}
		if !matched {
			needsStart = append(needsStart, alloc)
		}
	}

	for _, p := range proxies {
		if !claimed[p] {
			available = append(available, p)
		}
	}
	return needsStart, available
}
