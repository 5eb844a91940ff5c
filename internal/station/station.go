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

// Package station implements the ground-station frequency registry
// (spec.md §3, §4.3, §4.4): per-source station tables, each with its own
// staleness horizon, merged by an aggregator into a single authoritative
// active-frequency set per station, with debounced snapshot persistence.
package station

import (
	"sort"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/config"
)

// Station is one ground station's identity and frequency assignment as
// seen by a single table (spec.md §3).
type Station struct {
	ID          uint
	Name        string
	Frequencies map[int]struct{}
	LastUpdated time.Time
}

// SortedFrequencies returns the station's frequencies in ascending order.
func (s Station) SortedFrequencies() []int {
	out := make([]int, 0, len(s.Frequencies))
	for f := range s.Frequencies {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

func frequencySet(freqs []int) map[int]struct{} {
	set := make(map[int]struct{}, len(freqs))
	for _, f := range freqs {
		set[f] = struct{}{}
	}
	return set
}

// staleHorizon returns how long a table's entries remain fresh. A zero
// duration means "never stale while present" — used by sources that are
// authoritative whenever they have data at all (remote, system, previous),
// per spec.md §3.
func staleHorizon(kind config.TableKind) time.Duration {
	switch kind {
	case config.TableKindSquitter, config.TableKindUpdate:
		// Order of minutes, reflecting the squitter/update broadcast period.
		// Spec.md §9(b) notes this should become configurable in a
		// production rewrite; it remains embedded in table behavior here,
		// matching the source this spec distills.
		return 3 * time.Minute
	default:
		return 0
	}
}
