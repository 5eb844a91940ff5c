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
	"bytes"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
	"github.com/hfdl-observer/hfdlobserver888/internal/metrics"
)

// HFDLPacket is a decoded packet's station-relevant fields (spec.md §4.4's
// on_hfdl operation). Packet decoding itself is a non-goal of this core — the
// decoder supplying this value lives elsewhere.
type HFDLPacket struct {
	StationID        uint
	StationName      string
	SquitterFreqs    []int
	FrequencyUpdates []int
	At               time.Time
}

// Aggregator merges every owned Table into one authoritative active-frequency
// set per station (spec.md §4.4), and persists a debounced snapshot of that
// merged view whenever any table changes.
type Aggregator struct {
	bus          *eventbus.Bus
	tables       []*Table
	squitter     *Table
	update       *Table
	snapshotPath string
	saveDelay    time.Duration
	now          func() time.Time
	metrics      *metrics.Metrics

	mu            sync.Mutex
	saveTimer     *time.Timer
	lastSavedBody []byte
}

// NewAggregator creates an Aggregator over tables (traversal order: squitter,
// update, remote, system, previous — spec.md §4.4) and subscribes it to the
// shared update topic so any table mutation schedules a debounced save.
// squitter and update must both be present among tables; on_hfdl forwards to
// them directly.
func NewAggregator(bus *eventbus.Bus, tables []*Table, snapshotPath string, saveDelay time.Duration) *Aggregator {
	a := &Aggregator{
		bus:          bus,
		tables:       tables,
		snapshotPath: snapshotPath,
		saveDelay:    saveDelay,
		now:          time.Now,
	}
	for _, t := range tables {
		switch t.Kind() {
		case config.TableKindSquitter:
			a.squitter = t
		case config.TableKindUpdate:
			a.update = t
		}
	}
	bus.Subscribe(eventbus.TopicUpdate, func(any) { a.onTableUpdate() })
	return a
}

// SetClock overrides the aggregator's time source. It exists for tests that
// need to control staleness deterministically; production code never calls it.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// SetMetrics attaches m so future saves record the tracked-station gauge. An
// Aggregator with no metrics attached (the default) records nothing; m may
// be nil.
func (a *Aggregator) SetMetrics(m *metrics.Metrics) {
	a.metrics = m
}

// OnHFDL forwards a decoded packet's frequency fields to the owned
// squitter/update tables (spec.md §4.4). A packet may carry either field,
// both, or neither.
func (a *Aggregator) OnHFDL(pkt HFDLPacket) {
	if len(pkt.SquitterFreqs) > 0 && a.squitter != nil {
		a.squitter.Merge(pkt.StationID, pkt.StationName, pkt.SquitterFreqs, pkt.At)
	}
	if len(pkt.FrequencyUpdates) > 0 && a.update != nil {
		a.update.Merge(pkt.StationID, pkt.StationName, pkt.FrequencyUpdates, pkt.At)
	}
}

// ActiveFrequencies returns the merged, sorted set of currently fresh
// frequencies for stationID across every owned table, in traversal order
// (spec.md §4.4).
func (a *Aggregator) ActiveFrequencies(stationID uint) []int {
	now := a.now()
	set := make(map[int]struct{})
	for _, t := range a.tables {
		if s, ok := t.Fresh(stationID, now); ok {
			for f := range s.Frequencies {
				set[f] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// StationFrequencies returns ActiveFrequencies for every station id known to
// any owned table — the input shape the allocator consumes.
func (a *Aggregator) StationFrequencies() map[uint][]int {
	now := a.now()
	ids := make(map[uint]struct{})
	for _, t := range a.tables {
		for _, s := range t.All(now) {
			ids[s.ID] = struct{}{}
		}
	}
	out := make(map[uint][]int, len(ids))
	for id := range ids {
		if freqs := a.ActiveFrequencies(id); len(freqs) > 0 {
			out[id] = freqs
		}
	}
	return out
}

// mergedStations returns one Station per known id: the merged active
// frequency set, and the name from whichever fresh entry was most recently
// updated (spec.md §4.4 — later updates win name conflicts, not table
// traversal order; ties are broken by traversal order since later tables
// overwrite on >=).
func (a *Aggregator) mergedStations() []Station {
	now := a.now()
	merged := make(map[uint]Station)
	for _, t := range a.tables {
		for _, s := range t.All(now) {
			cur, ok := merged[s.ID]
			if !ok || !s.LastUpdated.Before(cur.LastUpdated) {
				merged[s.ID] = Station{ID: s.ID, Name: s.Name, LastUpdated: s.LastUpdated}
			}
		}
	}
	out := make([]Station, 0, len(merged))
	for id, s := range merged {
		freqs := a.ActiveFrequencies(id)
		out = append(out, Station{ID: id, Name: s.Name, Frequencies: frequencySet(freqs), LastUpdated: s.LastUpdated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// onTableUpdate schedules a debounced save. Per spec.md §4.4: a second
// update arriving during the delay does not reset the timer (it's coalesced
// into whatever the eventual save observes); once that save fires, the next
// update rearms a fresh delay.
func (a *Aggregator) onTableUpdate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveTimer != nil {
		return
	}
	a.saveTimer = time.AfterFunc(a.saveDelay, a.performSave)
}

func (a *Aggregator) performSave() {
	a.mu.Lock()
	a.saveTimer = nil
	a.mu.Unlock()

	stations := a.mergedStations()
	a.metrics.SetStationsTracked(len(stations))
	a.publishFrequencies(stations)

	if a.snapshotPath == "" {
		return
	}

	// Compare on the body only: the top-level "when" advances on every save
	// regardless of whether the station data actually changed, so comparing
	// the full document would defeat the skip-unchanged-writes invariant.
	body, err := SnapshotBody(stations)
	if err != nil {
		slog.Error("failed to marshal station snapshot", "error", err)
		return
	}

	a.mu.Lock()
	unchanged := bytes.Equal(body, a.lastSavedBody)
	a.mu.Unlock()
	if unchanged {
		return
	}

	data, err := MarshalSnapshot(stations, a.now())
	if err != nil {
		slog.Error("failed to marshal station snapshot", "error", err)
		return
	}
	if err := os.WriteFile(a.snapshotPath, data, 0o644); err != nil {
		slog.Error("failed to write station snapshot", "path", a.snapshotPath, "error", err)
		return
	}
	a.mu.Lock()
	a.lastSavedBody = body
	a.mu.Unlock()
}

func (a *Aggregator) publishFrequencies(stations []Station) {
	payload := make(map[uint][]int, len(stations))
	for _, s := range stations {
		payload[s.ID] = s.SortedFrequencies()
	}
	a.bus.Publish(eventbus.TopicFrequencies, payload)
}
