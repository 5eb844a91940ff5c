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
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hfdl-observer/hfdlobserver888/internal/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) gocron.Scheduler {
	t.Helper()
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestURLRefresherFeedsSinkOnEachFetch(t *testing.T) {
	t.Parallel()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"ground_stations":[]}`))
	}))
	t.Cleanup(srv.Close)

	sched := newScheduler(t)
	received := make(chan []byte, 4)
	sink := func(data []byte, _ time.Time) error {
		received <- data
		return nil
	}

	_, err := refresh.NewURLRefresher(sched, "test", refresh.NewHTTPFetcher(srv.URL, nil), sink, 20*time.Millisecond)
	require.NoError(t, err)
	sched.Start()

	select {
	case data := <-received:
		assert.Contains(t, string(data), "ground_stations")
	case <-time.After(time.Second):
		t.Fatal("refresher never fed the sink")
	}
}

func TestURLRefresherSurvivesTransientFetchErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ground_stations":[]}`))
	}))
	t.Cleanup(srv.Close)

	sched := newScheduler(t)
	received := make(chan []byte, 1)
	sink := func(data []byte, _ time.Time) error {
		select {
		case received <- data:
		default:
		}
		return nil
	}

	_, err := refresh.NewURLRefresher(sched, "test", refresh.NewHTTPFetcher(srv.URL, nil), sink, 15*time.Millisecond)
	require.NoError(t, err)
	sched.Start()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not recover after transient errors")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestHTTPFetcherReturnsErrorOnNonOKStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := refresh.NewHTTPFetcher(srv.URL, nil).Fetch(context.Background())
	assert.Error(t, err)
}
