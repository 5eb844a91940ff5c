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

// Package receiver implements the receiver proxy (spec.md §4.7): the
// conductor's local stand-in for one external receiver process, tracking
// what it has actually acknowledged listening to rather than what was
// merely requested of it.
package receiver

import (
	"sort"
	"sync"

	"github.com/hfdl-observer/hfdlobserver888/internal/allocation"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
)

// State is the proxy's two-state machine: idle while no allocation is
// assigned, listening once one is (spec.md §4.7).
type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	if s == Listening {
		return "listening"
	}
	return "idle"
}

// Proxy mirrors one external receiver's actual, acknowledged listening state.
// It never assumes a "listen" request succeeded — only a "listening" event
// moves it out of Idle.
type Proxy struct {
	name       string
	sampleRate int
	bus        *eventbus.Bus

	mu         sync.Mutex
	allocation *allocation.Allocation
}

// New creates a Proxy for a named receiver with the given sample rate
// ceiling, publishing listen commands on its per-receiver bus topic.
func New(name string, sampleRate int, bus *eventbus.Bus) *Proxy {
	return &Proxy{name: name, sampleRate: sampleRate, bus: bus}
}

// Name reports the receiver's configured name.
func (p *Proxy) Name() string {
	return p.name
}

// SampleRate reports the receiver's configured bandwidth ceiling in Hz.
func (p *Proxy) SampleRate() int {
	return p.sampleRate
}

// State reports the proxy's current position in the idle/listening machine.
func (p *Proxy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allocation == nil {
		return Idle
	}
	return Listening
}

// Covers reports whether the proxy's current allocation, if any, already
// contains every frequency in desired (set containment — spec.md §4.7).
func (p *Proxy) Covers(desired []int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocation.Covers(desired)
}

// Coverable reports whether the proxy's sample rate could serve an
// allocation spanning width Hz.
func (p *Proxy) Coverable(width int) bool {
	return width <= p.sampleRate
}

// Listen publishes a listen command for freqs on the proxy's per-receiver
// topic. It does not itself change State — only a subsequent "listening"
// acknowledgement does (spec.md §4.7).
func (p *Proxy) Listen(freqs []int) {
	sorted := append([]int(nil), freqs...)
	sort.Ints(sorted)
	p.bus.Publish(eventbus.ReceiverTopic(p.name), ListenCommand{Receiver: p.name, Frequencies: sorted})
}

// OnListening handles the remote "listening" acknowledgement: it sets the
// proxy's allocation to exactly freqs. An empty freqs returns the proxy to
// Idle (spec.md §4.7).
func (p *Proxy) OnListening(freqs []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(freqs) == 0 {
		p.allocation = nil
		return
	}
	p.allocation = allocation.NewWithFrequencies(p.sampleRate, freqs)
}

// ListenCommand is the payload published on a receiver's per-receiver topic
// to request it begin listening to a frequency set (spec.md §4.7, §4.8).
type ListenCommand struct {
	Receiver    string
	Frequencies []int
}
