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

// Package pprofsrv serves net/http/pprof's debug endpoints behind an
// optional, separately-bound HTTP server (spec.md §9(c) — see SPEC_FULL.md's
// ambient operations surface for why this single diagnostic path is carried
// over std net/http rather than the teacher's gin + gin-contrib/pprof stack:
// there is no routing, middleware, or auth surface here to justify gin's
// weight, and net/http/pprof already registers its handlers on a mux for
// free).
package pprofsrv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
)

// Server serves the standard pprof index, profile, and trace endpoints.
type Server struct {
	http *http.Server
}

// NewServer builds a pprof server bound to addr, not yet listening.
// trustedProxies is accepted from config but not used: the server applies
// no X-Forwarded-For trust handling and does not store or log the value.
func NewServer(addr string, trustedProxies []string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	_ = trustedProxies
	return &Server{http: &http.Server{Addr: addr, Handler: mux}}
}

// ListenAndServe blocks serving pprof until the server is shut down.
func (s *Server) ListenAndServe() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("pprof server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the pprof server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
