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

// Package refresh implements the periodic station-source refreshers
// (spec.md §4.2): a URL-backed remote feed and a local file feed, each
// re-fetched on a fixed period and fed into a station.Table.
//
// Grounded on the teacher's internal/dmr/netscheduler package for the
// gocron.Scheduler/gocron.NewJob wiring style; this package needs none of
// netscheduler's per-job database persistence or auto-close timers, since a
// refresher's only state is "run again after period".
package refresh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Fetcher fetches raw bytes from some source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Sink consumes fetched bytes. *station.Table's Replace/Merge-backed
// wrappers implement this via a small adapter in the caller.
type Sink func(data []byte, fetchedAt time.Time) error

// HTTPFetcher fetches a URL with a bounded timeout.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher for url using a client with a 30s timeout
// unless client is provided.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{URL: url, Client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", f.URL, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", f.URL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", f.URL, err)
	}
	return data, nil
}

// URLRefresher re-fetches an HTTPFetcher on a fixed period via a shared
// gocron.Scheduler, handing every successful fetch to sink. A fetch error is
// logged and retried on the next tick — transient network failures never
// stop the refresher (spec.md §4.2).
type URLRefresher struct {
	name      string
	fetcher   Fetcher
	sink      Sink
	period    time.Duration
	scheduler gocron.Scheduler

	job gocron.Job
}

// NewURLRefresher registers a new job on scheduler. The job does not start
// running until scheduler.Start() is called by the owner.
func NewURLRefresher(scheduler gocron.Scheduler, name string, fetcher Fetcher, sink Sink, period time.Duration) (*URLRefresher, error) {
	r := &URLRefresher{name: name, fetcher: fetcher, sink: sink, period: period, scheduler: scheduler}

	job, err := scheduler.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(r.tick),
		gocron.WithName("refresh-url-"+name),
		gocron.WithStartImmediately(),
	)
	if err != nil {
		return nil, fmt.Errorf("registering url refresher %q: %w", name, err)
	}
	r.job = job
	return r, nil
}

func (r *URLRefresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.period)
	defer cancel()

	data, err := r.fetcher.Fetch(ctx)
	if err != nil {
		slog.Warn("station feed fetch failed, will retry next period", "feed", r.name, "error", err)
		return
	}
	if err := r.sink(data, time.Now()); err != nil {
		slog.Warn("station feed sink rejected fetched data", "feed", r.name, "error", err)
	}
}

// Stop removes the refresher's job from its scheduler. Any fetch already in
// flight completes; it is simply not rescheduled.
func (r *URLRefresher) Stop() error {
	return r.scheduler.RemoveJob(r.job.ID())
}
