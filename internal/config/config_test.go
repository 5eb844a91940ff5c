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

package config_test

import (
	"testing"

	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/stretchr/testify/assert"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel:       config.LogLevelInfo,
		State:          config.State{Path: "state.json"},
		SlotWidth:      96000,
		RankedStations: []uint{1, 2, 3},
		Receivers: []config.Receiver{
			{Name: "rx0", SampleRate: 96000, Command: "soapy-hfdl"},
		},
	}
}

func TestConfigValidateValid(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidateInvalidLogLevel(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.LogLevel = "trace"
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestConfigValidateMissingStatePath(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.State.Path = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrStatePathRequired)
}

func TestConfigValidateNonPositiveSlotWidth(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.SlotWidth = 0
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidSlotWidth)
}

func TestConfigValidateDuplicateRankedStation(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.RankedStations = []uint{1, 2, 1}
	assert.ErrorIs(t, cfg.Validate(), config.ErrDuplicateRankedStation)
}

func TestConfigValidateInvalidFrequencyRange(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.IgnoredFrequencies = []config.FrequencyRange{{Lo: 12000, Hi: 11000}}
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidFrequencyRange)
}

func TestConfigValidateDuplicateReceiverName(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Receivers = append(cfg.Receivers, config.Receiver{Name: "rx0", SampleRate: 48000, Command: "soapy-hfdl"})
	assert.ErrorIs(t, cfg.Validate(), config.ErrDuplicateReceiverName)
}

func TestConfigValidateReceiverMissingCommand(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Receivers[0].Command = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrReceiverCommandRequired)
}

func TestConfigValidateMetricsDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Metrics = config.Metrics{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidateMetricsEnabledRequiresPort(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Metrics = config.Metrics{Enabled: true, Bind: "localhost", Port: 0}
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMetricsPort)
}

func TestFrequencyRangeContains(t *testing.T) {
	t.Parallel()
	r := config.FrequencyRange{Lo: 11000, Hi: 12000}
	assert.True(t, r.Contains(11000))
	assert.True(t, r.Contains(11500))
	assert.True(t, r.Contains(12000))
	assert.False(t, r.Contains(10999))
	assert.False(t, r.Contains(12001))
}
