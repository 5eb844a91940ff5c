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

package refresh_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hfdl-observer/hfdlobserver888/internal/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRefresherWakesImmediatelyOnWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ground_stations":[]}`), 0o644))

	sched := newScheduler(t)
	received := make(chan []byte, 4)
	sink := func(data []byte, _ time.Time) error {
		received <- data
		return nil
	}

	r, err := refresh.NewFileRefresher(sched, "test", path, sink, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Stop() })
	sched.Start()

	// Drain the immediate startup tick before asserting on the write-driven one.
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("refresher never ran its initial tick")
	}

	require.NoError(t, os.WriteFile(path, []byte(`{"ground_stations":[{"id":1,"name":"A","frequencies":{"active":[8927]}}]}`), 0o644))

	select {
	case data := <-received:
		assert.Contains(t, string(data), "8927")
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not wake on file write, waited for the hour-long tick instead")
	}
}

func TestFileRefresherSkipsSinkWhenContentUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	content := []byte(`{"ground_stations":[{"id":1,"name":"A","frequencies":{"active":[8927]}}]}`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sched := newScheduler(t)
	received := make(chan []byte, 8)
	sink := func(data []byte, _ time.Time) error {
		received <- data
		return nil
	}

	r, err := refresh.NewFileRefresher(sched, "test", path, sink, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Stop() })
	sched.Start()

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("refresher never ran its initial tick")
	}

	// Rewriting byte-identical content still raises an fsnotify write event,
	// but must not reach the sink: no change means no downstream republish.
	require.NoError(t, os.WriteFile(path, content, 0o644))

	select {
	case data := <-received:
		t.Fatalf("sink was called again with unchanged content: %s", data)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileRefresherSurvivesMissingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")

	sched := newScheduler(t)
	sink := func([]byte, time.Time) error { return nil }

	r, err := refresh.NewFileRefresher(sched, "test", path, sink, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Stop() })

	assert.NotPanics(t, func() {
		sched.Start()
		time.Sleep(50 * time.Millisecond)
	})
}
