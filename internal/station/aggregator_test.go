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

package station_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
	"github.com/hfdl-observer/hfdlobserver888/internal/metrics"
	"github.com/hfdl-observer/hfdlobserver888/internal/station"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(t *testing.T, snapshotPath string, saveDelay time.Duration) (*station.Aggregator, *station.Table, *station.Table) {
	t.Helper()
	bus := eventbus.New()
	squitter := station.NewTable(config.TableKindSquitter, bus)
	update := station.NewTable(config.TableKindUpdate, bus)
	remote := station.NewTable(config.TableKindRemote, bus)
	agg := station.NewAggregator(bus, []*station.Table{squitter, update, remote}, snapshotPath, saveDelay)
	return agg, squitter, update
}

func TestActiveFrequenciesMergesAcrossTables(t *testing.T) {
	t.Parallel()
	agg, squitter, update := newAggregator(t, "", time.Hour)

	now := time.Now()
	squitter.Merge(1, "Reykjavik", []int{8927}, now)
	update.Merge(1, "Reykjavik", []int{8936}, now)

	assert.ElementsMatch(t, []int{8927, 8936}, agg.ActiveFrequencies(1))
}

func TestActiveFrequenciesExcludesStaleEntries(t *testing.T) {
	t.Parallel()
	agg, squitter, _ := newAggregator(t, "", time.Hour)

	base := time.Now()
	squitter.Merge(1, "Reykjavik", []int{8927}, base)
	agg.SetClock(func() time.Time { return base.Add(10 * time.Minute) })

	assert.Empty(t, agg.ActiveFrequencies(1))
}

func TestOnHFDLForwardsToSquitterAndUpdateTables(t *testing.T) {
	t.Parallel()
	agg, _, _ := newAggregator(t, "", time.Hour)

	now := time.Now()
	agg.OnHFDL(station.HFDLPacket{
		StationID:        1,
		StationName:      "Reykjavik",
		SquitterFreqs:    []int{8927},
		FrequencyUpdates: []int{8936},
		At:               now,
	})

	assert.ElementsMatch(t, []int{8927, 8936}, agg.ActiveFrequencies(1))
}

// S5, scaled down: save_delay=150ms; a second update lands 30ms after the
// first, inside the delay. The snapshot that gets written reflects the state
// as of the later update.
func TestDebouncedSaveCoalescesRapidUpdates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	agg, squitter, _ := newAggregator(t, path, 150*time.Millisecond)

	now := time.Now()
	squitter.Merge(1, "Reykjavik", []int{8927}, now)
	time.Sleep(30 * time.Millisecond)
	squitter.Merge(1, "Reykjavik", []int{8927, 8936}, now.Add(time.Second))

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	stations, err := station.ParseGroundStationsJSON(data, now)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.ElementsMatch(t, []int{8927, 8936}, stations[0].SortedFrequencies())
}

func TestSaveSkipsRewriteWhenSnapshotIsUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	agg, squitter, _ := newAggregator(t, path, 20*time.Millisecond)

	// Drive the save clock explicitly, advancing it across a second boundary
	// between saves, so this test can't pass by accident the way it would if
	// both saves happened to land within the same wall-clock second: the
	// skip-unchanged-writes invariant must hold even though the top-level
	// "when" in the snapshot advances on every save.
	var clockMu sync.Mutex
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	agg.SetClock(func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clock
	})

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	squitter.Merge(1, "Reykjavik", []int{8927}, fixed)
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	info1, err := os.Stat(path)
	require.NoError(t, err)
	body1, err := os.ReadFile(path)
	require.NoError(t, err)

	clockMu.Lock()
	clock = clock.Add(2 * time.Second)
	clockMu.Unlock()

	// Re-publish byte-identical station data (same frequencies, same
	// timestamp) under an advanced save clock: no station-data change means
	// no rewrite, even though a save at the new clock value would otherwise
	// produce a document with a different top-level "when".
	squitter.Merge(1, "Reykjavik", []int{8927}, fixed)
	time.Sleep(100 * time.Millisecond)

	info2, err := os.Stat(path)
	require.NoError(t, err)
	body2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
	assert.Equal(t, body1, body2)
}

func TestSaveRecordsStationsTrackedGauge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	agg, squitter, update := newAggregator(t, path, 10*time.Millisecond)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	agg.SetMetrics(m)

	now := time.Now()
	squitter.Merge(1, "Reykjavik", []int{8927}, now)
	update.Merge(2, "Riverhead", []int{13276}, now)

	require.Eventually(t, func() bool {
		families, err := reg.Gather()
		require.NoError(t, err)
		for _, fam := range families {
			if fam.GetName() == "hfdlobserver_stations_tracked" && len(fam.Metric) == 1 {
				return fam.Metric[0].GetGauge().GetValue() == 2
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
