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

// Package metrics exposes the coordination core's optional Prometheus
// instrumentation, grounded on the teacher's internal/metrics/prometheus.go
// Counter/Histogram/Gauge field layout, restructured for this domain.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge the core records. A nil *Metrics is
// valid everywhere it's used — every Record method is a safe no-op on a nil
// receiver, so callers never need to branch on whether metrics are enabled.
type Metrics struct {
	busDispatches     *prometheus.CounterVec
	allocatorRuns     prometheus.Counter
	allocatorDuration prometheus.Histogram
	listenCommands    *prometheus.CounterVec
	harnessRestarts   *prometheus.CounterVec
	harnessExits      *prometheus.CounterVec
	stationsTracked   prometheus.Gauge
	activeAllocations prometheus.Gauge
}

// New registers and returns a fresh Metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		busDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfdlobserver",
			Name:      "bus_dispatches_total",
			Help:      "Event bus handler dispatches by topic.",
		}, []string{"topic"}),
		allocatorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hfdlobserver",
			Name:      "allocator_runs_total",
			Help:      "Number of allocator Allocate() passes.",
		}),
		allocatorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hfdlobserver",
			Name:      "allocator_duration_seconds",
			Help:      "Wall time of each allocator Allocate() pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		listenCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfdlobserver",
			Name:      "listen_commands_total",
			Help:      "Listen commands published by the conductor, by receiver.",
		}, []string{"receiver"}),
		harnessRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfdlobserver",
			Name:      "harness_restarts_total",
			Help:      "Receiver process restarts, by receiver.",
		}, []string{"receiver"}),
		harnessExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfdlobserver",
			Name:      "harness_exits_total",
			Help:      "Receiver process exits, by receiver and outcome state.",
		}, []string{"receiver", "state"}),
		stationsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hfdlobserver",
			Name:      "stations_tracked",
			Help:      "Ground stations with at least one fresh table entry.",
		}),
		activeAllocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hfdlobserver",
			Name:      "active_allocations",
			Help:      "Allocations produced by the most recent reconciliation pass.",
		}),
	}
	reg.MustRegister(
		m.busDispatches, m.allocatorRuns, m.allocatorDuration, m.listenCommands,
		m.harnessRestarts, m.harnessExits, m.stationsTracked, m.activeAllocations,
	)
	return m
}

func (m *Metrics) RecordBusDispatch(topic string) {
	if m == nil {
		return
	}
	m.busDispatches.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordAllocatorRun(d time.Duration) {
	if m == nil {
		return
	}
	m.allocatorRuns.Inc()
	m.allocatorDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordListenCommand(receiverName string) {
	if m == nil {
		return
	}
	m.listenCommands.WithLabelValues(receiverName).Inc()
}

func (m *Metrics) RecordHarnessExit(receiverName, state string) {
	if m == nil {
		return
	}
	m.harnessExits.WithLabelValues(receiverName, state).Inc()
	if state == "restart" {
		m.harnessRestarts.WithLabelValues(receiverName).Inc()
	}
}

func (m *Metrics) SetStationsTracked(n int) {
	if m == nil {
		return
	}
	m.stationsTracked.Set(float64(n))
}

func (m *Metrics) SetActiveAllocations(n int) {
	if m == nil {
		return
	}
	m.activeAllocations.Set(float64(n))
}
