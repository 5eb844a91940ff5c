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

package station

import (
	"sync"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
)

// Table holds one tagged-variant source's view of ground stations (spec.md
// §4.3): squitter, update, remote (Airframes), system, or previous. Each
// source owns its own staleness horizon and is merged with the others only
// by the Aggregator.
type Table struct {
	kind    config.TableKind
	horizon time.Duration
	bus     *eventbus.Bus

	mu       sync.Mutex
	stations map[uint]Station
}

// NewTable creates an empty Table of the given kind, publishing to bus on
// every mutation.
func NewTable(kind config.TableKind, bus *eventbus.Bus) *Table {
	return &Table{
		kind:     kind,
		horizon:  staleHorizon(kind),
		bus:      bus,
		stations: make(map[uint]Station),
	}
}

// Kind reports the table's tagged variant.
func (t *Table) Kind() config.TableKind {
	return t.kind
}

// Merge applies squitter/update-style incremental updates: the named
// station's frequency set is replaced by freqs and its timestamp advanced to
// at (spec.md §4.3, squitter and update variants). An empty freqs still
// updates the timestamp, keeping the entry fresh with no active frequencies.
func (t *Table) Merge(stationID uint, name string, freqs []int, at time.Time) {
	t.mu.Lock()
	existing := t.stations[stationID]
	if name == "" {
		name = existing.Name
	}
	t.stations[stationID] = Station{
		ID:          stationID,
		Name:        name,
		Frequencies: frequencySet(freqs),
		LastUpdated: at,
	}
	t.mu.Unlock()

	t.bus.Publish(eventbus.TopicUpdate, t.kind)
}

// Replace wholesale-replaces the table's contents, as the remote (Airframes),
// system, and previous variants do on every refresh (spec.md §4.3): each
// fetch/read is authoritative for everything it mentions, and anything it
// omits simply falls out of the table.
func (t *Table) Replace(stations []Station) {
	t.mu.Lock()
	t.stations = make(map[uint]Station, len(stations))
	for _, s := range stations {
		if s.Frequencies == nil {
			s.Frequencies = make(map[int]struct{})
		}
		t.stations[s.ID] = s
	}
	t.mu.Unlock()

	t.bus.Publish(eventbus.TopicUpdate, t.kind)
}

// Fresh reports whether stationID has a current, non-stale entry as of now.
func (t *Table) Fresh(stationID uint, now time.Time) (Station, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stations[stationID]
	if !ok {
		return Station{}, false
	}
	if t.horizon > 0 && now.Sub(s.LastUpdated) > t.horizon {
		return Station{}, false
	}
	return s, true
}

// All returns every currently fresh station in the table.
func (t *Table) All(now time.Time) []Station {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Station, 0, len(t.stations))
	for _, s := range t.stations {
		if t.horizon > 0 && now.Sub(s.LastUpdated) > t.horizon {
			continue
		}
		out = append(out, s)
	}
	return out
}
