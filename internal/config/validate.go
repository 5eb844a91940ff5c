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

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrStatePathRequired indicates that no snapshot path was configured.
	ErrStatePathRequired = errors.New("state.path is required")
	// ErrInvalidSlotWidth indicates that the configured slot width is not positive.
	ErrInvalidSlotWidth = errors.New("slot_width must be a positive number of Hz")
	// ErrDuplicateRankedStation indicates a station id appears more than once in ranked_stations.
	ErrDuplicateRankedStation = errors.New("duplicate station id in ranked_stations")
	// ErrInvalidFrequencyRange indicates an ignored_frequencies entry has lo > hi.
	ErrInvalidFrequencyRange = errors.New("ignored frequency range has lo greater than hi")
	// ErrReceiverNameRequired indicates a receiver entry is missing its name.
	ErrReceiverNameRequired = errors.New("receiver name is required")
	// ErrDuplicateReceiverName indicates two receivers share a name.
	ErrDuplicateReceiverName = errors.New("duplicate receiver name")
	// ErrInvalidReceiverSampleRate indicates a receiver's sample rate is not positive.
	ErrInvalidReceiverSampleRate = errors.New("receiver sample_rate must be positive")
	// ErrReceiverCommandRequired indicates a receiver is missing its child-process command.
	ErrReceiverCommandRequired = errors.New("receiver command is required")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the provided pprof server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
)

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates a single Receiver entry in isolation (name uniqueness
// is checked by Config.Validate across the whole list).
func (r Receiver) Validate() error {
	if r.Name == "" {
		return ErrReceiverNameRequired
	}
	if r.SampleRate <= 0 {
		return ErrInvalidReceiverSampleRate
	}
	if r.Command == "" {
		return ErrReceiverCommandRequired
	}
	return nil
}

// Validate validates the full configuration. Internal invariant violations
// (duplicate station ids, unnamed receivers, malformed ranges) are treated
// as fatal configuration errors per spec.md §7 — the operator must fix
// them, the core does not attempt to self-repair.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	if c.State.Path == "" {
		return ErrStatePathRequired
	}

	if c.SlotWidth <= 0 {
		return ErrInvalidSlotWidth
	}

	seenStations := make(map[uint]struct{}, len(c.RankedStations))
	for _, id := range c.RankedStations {
		if _, ok := seenStations[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateRankedStation, id)
		}
		seenStations[id] = struct{}{}
	}

	for _, r := range c.IgnoredFrequencies {
		if r.Lo > r.Hi {
			return fmt.Errorf("%w: [%d, %d]", ErrInvalidFrequencyRange, r.Lo, r.Hi)
		}
	}

	seenReceivers := make(map[string]struct{}, len(c.Receivers))
	for _, r := range c.Receivers {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, ok := seenReceivers[r.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateReceiverName, r.Name)
		}
		seenReceivers[r.Name] = struct{}{}
	}

	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}

	return nil
}
