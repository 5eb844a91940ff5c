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

// Package config defines the typed, validated configuration for the
// coordination core and loads it with configulator.
package config

import "time"

// Config stores the full application configuration.
type Config struct {
	LogLevel LogLevel `default:"info" yaml:"log_level" desc:"Logging verbosity (debug, info, warn, error)"`

	// State is the on-disk snapshot the station aggregator persists to and
	// restores from at startup into the "previous" station table.
	State State `yaml:"state"`

	// SaveDelay is the debounce window (§4.4) between an aggregator update
	// event and the snapshot write it triggers.
	SaveDelay time.Duration `default:"2s" yaml:"save_delay" desc:"Debounce window before writing a new station snapshot"`

	// StationUpdates configures one URL-backed remote station feed per entry.
	StationUpdates []StationFeed `yaml:"station_updates"`

	// StationFiles configures one local system station file per entry.
	StationFiles []StationFile `yaml:"station_files"`

	// RankedStations is the operator-supplied station priority list, highest
	// priority first. Station ids absent from this list are never allocated.
	RankedStations []uint `yaml:"ranked_stations"`

	// IgnoredFrequencies lists inclusive kHz ranges the allocator must never
	// assign to a slot, regardless of station priority.
	IgnoredFrequencies []FrequencyRange `yaml:"ignored_frequencies"`

	// SlotWidth is the per-slot sample-rate ceiling in Hz used by the
	// allocator (§4.6). The allocator reserves no guard band: an allocation
	// may span exactly SlotWidth, so operators who need skirt headroom set a
	// SlotWidth narrower than their receivers' true bandwidth.
	SlotWidth int `yaml:"slot_width" desc:"Per-slot sample-rate ceiling in Hz"`

	// Receivers describes the fleet of receiver proxies / process harnesses
	// the conductor reconciles allocations against, in priority order.
	Receivers []Receiver `yaml:"receivers"`

	Metrics Metrics `yaml:"metrics"`
	PProf   PProf   `yaml:"pprof"`
}

// State configures the persisted station snapshot.
type State struct {
	Path string `default:"state.json" yaml:"path" desc:"Path to the persisted station snapshot"`
}

// StationFeed configures a URL refresher (§4.2) feeding an AirframesStationTable.
type StationFeed struct {
	URL    string        `yaml:"url"`
	Period time.Duration `default:"60s" yaml:"period"`
}

// StationFile configures a file refresher (§4.2) feeding a SystemTable.
type StationFile struct {
	Path   string        `yaml:"path"`
	Period time.Duration `default:"30s" yaml:"period"`
}

// FrequencyRange is an inclusive kHz range. A single frequency is expressed
// with Lo == Hi.
type FrequencyRange struct {
	Lo int `yaml:"lo"`
	Hi int `yaml:"hi"`
}

// Contains reports whether freq falls within the inclusive range.
func (r FrequencyRange) Contains(freq int) bool {
	return freq >= r.Lo && freq <= r.Hi
}

// Receiver configures one proxy/process-harness pair the conductor manages.
type Receiver struct {
	// Name must be unique across all receivers; it is also the per-receiver
	// event bus topic suffix ("receiver:<name>").
	Name       string `yaml:"name"`
	SampleRate int    `yaml:"sample_rate" desc:"Receiver sample rate in Hz"`

	// Command describes the external child process this receiver's harness
	// supervises (§4.9). Command is the executable and Args its arguments,
	// unless Shell is true, in which case Command and Args are joined with
	// spaces and the resulting line is passed to "sh -c".
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Shell   bool     `yaml:"shell"`

	RecoverableErrors     []string `yaml:"recoverable_errors"`
	UnrecoverableErrors   []string `yaml:"unrecoverable_errors"`
	ValidReturnCodes      []int    `yaml:"valid_return_codes"`
	RecoverableErrorLimit int      `default:"10" yaml:"recoverable_error_limit"`
	FireOnce              bool     `yaml:"fire_once"`

	// SettlePeriod is an optional delay applied by the harness's on_prepare
	// hook before each (re)spawn, e.g. to let a USB device settle.
	SettlePeriod time.Duration `yaml:"settle_period"`
}

// Metrics configures the optional Prometheus metrics HTTP endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `default:"localhost" yaml:"bind"`
	Port    int    `default:"9090" yaml:"port"`
}

// PProf configures the optional net/http/pprof debug endpoint.
type PProf struct {
	Enabled        bool     `yaml:"enabled"`
	Bind           string   `default:"localhost" yaml:"bind"`
	Port           int      `default:"6060" yaml:"port"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}
