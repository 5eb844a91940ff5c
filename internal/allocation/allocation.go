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

// Package allocation implements the allocation model and the
// first-fit-decreasing packer described in spec.md §4.5/§4.6.
package allocation

import "sort"

// Allocation is an ordered, immutable-once-published list of frequencies
// (kHz) assigned to a single receiver slot (spec.md §3). Once returned from
// the allocator it is never mutated in place — callers that need a changed
// allocation build a new one.
type Allocation struct {
	ceiling     int
	frequencies []int
}

// New creates an empty Allocation bounded by ceiling, the per-slot
// sample-rate ceiling in Hz.
func New(ceiling int) *Allocation {
	return &Allocation{ceiling: ceiling}
}

// NewWithFrequencies creates an Allocation already containing freqs, sorted
// ascending. It does not check the ceiling invariant — callers that build
// allocations outside the packer (e.g. a receiver proxy recording a
// "listening" acknowledgement) are trusted to pass a set the remote
// receiver already accepted.
func NewWithFrequencies(ceiling int, freqs []int) *Allocation {
	a := &Allocation{ceiling: ceiling, frequencies: append([]int(nil), freqs...)}
	sort.Ints(a.frequencies)
	return a
}

// Frequencies returns the allocation's frequencies in ascending order. The
// returned slice is owned by the caller; mutating it does not affect a.
func (a *Allocation) Frequencies() []int {
	return append([]int(nil), a.frequencies...)
}

// Lo returns the minimum frequency, or 0 if the allocation is empty.
func (a *Allocation) Lo() int {
	if len(a.frequencies) == 0 {
		return 0
	}
	return a.frequencies[0]
}

// Hi returns the maximum frequency, or 0 if the allocation is empty.
func (a *Allocation) Hi() int {
	if len(a.frequencies) == 0 {
		return 0
	}
	return a.frequencies[len(a.frequencies)-1]
}

// Width reports hi - lo for the current frequency set, in kHz.
func (a *Allocation) Width() int {
	return a.Hi() - a.Lo()
}

// MaybeAdd attempts to add freq to the allocation. It returns true and
// mutates the allocation iff the resulting width (max - min, after
// insertion, converted from kHz to Hz) does not exceed the ceiling;
// otherwise it returns false and leaves the allocation untouched.
//
// The guard fraction left open by spec.md §9(a) is resolved as zero extra
// headroom here: width must be <= ceiling exactly. Operators who need
// skirt headroom configure a slot_width narrower than their receiver's
// true bandwidth (see config.Config.SlotWidth's doc comment) rather than
// have this package silently reserve a fixed percentage.
func (a *Allocation) MaybeAdd(freq int) bool {
	lo, hi := a.Lo(), a.Hi()
	if len(a.frequencies) == 0 {
		lo, hi = freq, freq
	} else {
		if freq < lo {
			lo = freq
		}
		if freq > hi {
			hi = freq
		}
	}
	if (hi-lo)*1000 > a.ceiling {
		return false
	}

	idx := sort.SearchInts(a.frequencies, freq)
	if idx < len(a.frequencies) && a.frequencies[idx] == freq {
		return true // already present
	}
	a.frequencies = append(a.frequencies, 0)
	copy(a.frequencies[idx+1:], a.frequencies[idx:])
	a.frequencies[idx] = freq
	return true
}

// Coverable reports whether a receiver with at least sampleRate Hz of
// bandwidth could serve this allocation.
func (a *Allocation) Coverable(sampleRate int) bool {
	return a.Width()*1000 <= sampleRate
}

// Covers reports whether every frequency in desired is present in a's
// frequency set (set containment, not equality) — spec.md §4.7.
func (a *Allocation) Covers(desired []int) bool {
	if a == nil {
		return len(desired) == 0
	}
	have := make(map[int]struct{}, len(a.frequencies))
	for _, f := range a.frequencies {
		have[f] = struct{}{}
	}
	for _, f := range desired {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}
