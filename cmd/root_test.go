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

package cmd

import (
	"testing"

	"github.com/hfdl-observer/hfdlobserver888/internal/allocation"
	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
	"github.com/stretchr/testify/assert"
)

func TestNewCommandCarriesVersionAnnotations(t *testing.T) {
	t.Parallel()
	c := NewCommand("1.2.3", "abc123")
	assert.Equal(t, "1.2.3", c.Annotations["version"])
	assert.Equal(t, "abc123", c.Annotations["commit"])
}

func TestBuildTablesCreatesOneTablePerConfiguredSource(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		StationUpdates: []config.StationFeed{{URL: "http://a"}, {URL: "http://b"}},
		StationFiles:   []config.StationFile{{Path: "/tmp/a"}},
		State:          config.State{Path: "/tmp/state.json"},
	}
	tables := buildTables(cfg, eventbus.New())

	// squitter + update + 2 remote + 1 system + 1 previous
	assert.Len(t, tables, 6)
	assert.Equal(t, config.TableKindSquitter, tables[0].Kind())
	assert.Equal(t, config.TableKindUpdate, tables[1].Kind())
	assert.Equal(t, config.TableKindPrevious, tables[len(tables)-1].Kind())
}

func TestBuildTablesOmitsPreviousTableWithoutStatePath(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	tables := buildTables(cfg, eventbus.New())
	assert.Len(t, tables, 2)
}

func TestIgnoredRangesConvertsConfigRanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{IgnoredFrequencies: []config.FrequencyRange{{Lo: 100, Hi: 200}}}
	ranges := ignoredRanges(cfg)
	assert.Equal(t, []allocation.Range{{Lo: 100, Hi: 200}}, ranges)
}
