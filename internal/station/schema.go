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
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// groundStationsDocument is the wire/snapshot shape shared by the remote
// (Airframes) feed and the persisted previous-session snapshot (spec.md §4.3,
// §6): {ground_stations: [{id, name, frequencies: {active: [...]}, ...}]}.
// The previous table reads exactly this shape back out of the file Aggregator
// last wrote, so both sources share one parser.
type groundStationsDocument struct {
	GroundStations []groundStationEntry `json:"ground_stations" yaml:"ground_stations"`
	When           string               `json:"when,omitempty" yaml:"when,omitempty"`
}

type groundStationEntry struct {
	ID          uint               `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Frequencies stationFrequencies `json:"frequencies" yaml:"frequencies"`
	LastUpdated int64              `json:"last_updated" yaml:"last_updated"`
	When        string             `json:"when,omitempty" yaml:"when,omitempty"`
}

type stationFrequencies struct {
	Active []int `json:"active" yaml:"active"`
}

// ParseGroundStationsJSON decodes an Airframes-schema document (the remote
// feed's wire format and the previous-session snapshot's file format) into
// Stations, using fetchedAt as each entry's timestamp when last_updated is
// zero.
func ParseGroundStationsJSON(data []byte, fetchedAt time.Time) ([]Station, error) {
	var doc groundStationsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return stationsFromDocument(doc, fetchedAt), nil
}

// ParseSystemFile decodes a local station file, which may be JSON or YAML
// (spec.md §4.2, §4.3): both unmarshal into the same document shape, and
// yaml.v3 accepts JSON as a YAML subset, so one decoder covers both.
func ParseSystemFile(data []byte, readAt time.Time) ([]Station, error) {
	var doc groundStationsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return stationsFromDocument(doc, readAt), nil
}

func stationsFromDocument(doc groundStationsDocument, fallback time.Time) []Station {
	out := make([]Station, 0, len(doc.GroundStations))
	for _, e := range doc.GroundStations {
		ts := fallback
		if e.LastUpdated > 0 {
			ts = time.Unix(e.LastUpdated, 0).UTC()
		}
		out = append(out, Station{
			ID:          e.ID,
			Name:        e.Name,
			Frequencies: frequencySet(e.Frequencies.Active),
			LastUpdated: ts,
		})
	}
	return out
}

// MarshalSnapshot renders stations as the persisted-snapshot JSON document
// described in spec.md §6: a top-level "when" recording the save time, and a
// per-station "when" recording that station's own last-updated time.
func MarshalSnapshot(stations []Station, savedAt time.Time) ([]byte, error) {
	doc := snapshotDocument(stations)
	doc.When = savedAt.UTC().Format(time.RFC3339)
	return json.MarshalIndent(doc, "", "  ")
}

// SnapshotBody renders the same document as MarshalSnapshot but without the
// top-level "when", which advances on every save regardless of whether the
// station data changed. Callers compare SnapshotBody output across saves to
// decide whether a write is needed; MarshalSnapshot is what actually gets
// written to disk.
func SnapshotBody(stations []Station) ([]byte, error) {
	return json.MarshalIndent(snapshotDocument(stations), "", "  ")
}

func snapshotDocument(stations []Station) groundStationsDocument {
	doc := groundStationsDocument{
		GroundStations: make([]groundStationEntry, 0, len(stations)),
	}
	for _, s := range stations {
		doc.GroundStations = append(doc.GroundStations, groundStationEntry{
			ID:          s.ID,
			Name:        s.Name,
			Frequencies: stationFrequencies{Active: s.SortedFrequencies()},
			LastUpdated: s.LastUpdated.Unix(),
			When:        s.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
	return doc
}
