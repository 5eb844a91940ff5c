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

// Package cmd wires the coordination core together: configuration, the
// event bus, station tables and their refreshers, the allocator, receiver
// proxies and their process harnesses, and the conductor that reconciles
// them. Grounded on the teacher's cmd/root.go shape — NewCommand/runRoot,
// setupLogger, setupScheduler, and a serverManager-style aggregate holding
// everything that needs an orderly shutdown.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/hfdl-observer/hfdlobserver888/internal/allocation"
	"github.com/hfdl-observer/hfdlobserver888/internal/conductor"
	"github.com/hfdl-observer/hfdlobserver888/internal/config"
	"github.com/hfdl-observer/hfdlobserver888/internal/eventbus"
	"github.com/hfdl-observer/hfdlobserver888/internal/metrics"
	"github.com/hfdl-observer/hfdlobserver888/internal/pprofsrv"
	"github.com/hfdl-observer/hfdlobserver888/internal/process"
	"github.com/hfdl-observer/hfdlobserver888/internal/receiver"
	"github.com/hfdl-observer/hfdlobserver888/internal/refresh"
	"github.com/hfdl-observer/hfdlobserver888/internal/station"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// NewCommand builds the root cobra command.
func NewCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:     "hfdlobserver888",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("hfdlobserver888 - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	core, err := newCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer core.shutdown(context.Background())

	if err := core.start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// loadConfig loads the configuration with configulator, matching the
// teacher's loadConfig shape (cmd/root.go) minus the cobra-context
// injection it relies on — no feature here needs a command-scoped config,
// so loading directly is simpler (see DESIGN.md).
func loadConfig() (*config.Config, error) {
	c := configulator.New[config.Config]()
	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger configures the structured logger, matching the teacher's
// cmd/root.go setupLogger.
func setupLogger(cfg *config.Config) {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
}

// core holds every long-lived component the root command owns, in the
// shape of the teacher's serverManager (cmd/root.go).
type core struct {
	cfg        *config.Config
	bus        *eventbus.Bus
	scheduler  gocron.Scheduler
	aggregator *station.Aggregator
	conductor  *conductor.Conductor
	metrics    *metrics.Metrics
	proxies    []*receiver.Proxy
	harnesses  []*process.Harness

	refreshers []interface{ Stop() error }

	metricsSrv *metrics.Server
	pprofSrv   *pprofsrv.Server

	harnessCancel context.CancelFunc
	harnessWG     sync.WaitGroup
}

func newCore(ctx context.Context, cfg *config.Config) (*core, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	bus := eventbus.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	bus.SetMetrics(m)

	tables := buildTables(cfg, bus)
	aggregator := station.NewAggregator(bus, tables, cfg.State.Path, cfg.SaveDelay)
	aggregator.SetMetrics(m)

	refreshers, err := buildRefreshers(scheduler, cfg, bus, tables)
	if err != nil {
		return nil, err
	}

	allocator := allocation.New(cfg.RankedStations, ignoredRanges(cfg), cfg.SlotWidth)
	allocator.SetMetrics(m)
	proxies := make([]*receiver.Proxy, 0, len(cfg.Receivers))
	for _, rcv := range cfg.Receivers {
		proxies = append(proxies, receiver.New(rcv.Name, rcv.SampleRate, bus))
	}
	cond := conductor.New(allocator, aggregator, proxies)
	cond.SetMetrics(m)

	harnesses := make([]*process.Harness, 0, len(cfg.Receivers))
	for _, rcv := range cfg.Receivers {
		h, err := process.New(rcv)
		if err != nil {
			return nil, fmt.Errorf("building receiver harness %q: %w", rcv.Name, err)
		}
		harnesses = append(harnesses, h)
	}

	wireReceiverEvents(bus, cfg.Receivers, m)

	c := &core{
		cfg: cfg, bus: bus, scheduler: scheduler, aggregator: aggregator,
		conductor: cond, metrics: m, proxies: proxies, harnesses: harnesses,
		refreshers: refreshers,
	}

	if cfg.Metrics.Enabled {
		c.metricsSrv = metrics.NewServer(fmt.Sprintf("%s:%d", cfg.Metrics.Bind, cfg.Metrics.Port), reg)
	}
	if cfg.PProf.Enabled {
		c.pprofSrv = pprofsrv.NewServer(fmt.Sprintf("%s:%d", cfg.PProf.Bind, cfg.PProf.Port), cfg.PProf.TrustedProxies)
	}

	return c, nil
}

func buildTables(cfg *config.Config, bus *eventbus.Bus) []*station.Table {
	squitter := station.NewTable(config.TableKindSquitter, bus)
	update := station.NewTable(config.TableKindUpdate, bus)
	tables := []*station.Table{squitter, update}
	for range cfg.StationUpdates {
		tables = append(tables, station.NewTable(config.TableKindRemote, bus))
	}
	for range cfg.StationFiles {
		tables = append(tables, station.NewTable(config.TableKindSystem, bus))
	}
	if cfg.State.Path != "" {
		tables = append(tables, station.NewTable(config.TableKindPrevious, bus))
	}
	return tables
}

func buildRefreshers(scheduler gocron.Scheduler, cfg *config.Config, bus *eventbus.Bus, tables []*station.Table) ([]interface{ Stop() error }, error) {
	var refreshers []interface{ Stop() error }
	idx := 2 // squitter, update occupy 0,1

	for _, feed := range cfg.StationUpdates {
		tbl := tables[idx]
		idx++
		sink := func(data []byte, at time.Time) error {
			stations, err := station.ParseGroundStationsJSON(data, at)
			if err != nil {
				return err
			}
			tbl.Replace(stations)
			return nil
		}
		r, err := refresh.NewURLRefresher(scheduler, feed.URL, refresh.NewHTTPFetcher(feed.URL, nil), sink, feed.Period)
		if err != nil {
			return nil, err
		}
		refreshers = append(refreshers, r)
	}

	for _, file := range cfg.StationFiles {
		tbl := tables[idx]
		idx++
		sink := func(data []byte, at time.Time) error {
			stations, err := station.ParseSystemFile(data, at)
			if err != nil {
				return err
			}
			tbl.Replace(stations)
			return nil
		}
		r, err := refresh.NewFileRefresher(scheduler, file.Path, file.Path, sink, file.Period)
		if err != nil {
			return nil, err
		}
		refreshers = append(refreshers, r)
	}

	if cfg.State.Path != "" && idx < len(tables) {
		prevTable := tables[idx]
		if data, err := os.ReadFile(cfg.State.Path); err == nil {
			if stations, err := station.ParseGroundStationsJSON(data, time.Now()); err == nil {
				prevTable.Replace(stations)
			} else {
				slog.Warn("failed to parse previous-session snapshot", "path", cfg.State.Path, "error", err)
			}
		}
	}

	return refreshers, nil
}

func ignoredRanges(cfg *config.Config) []allocation.Range {
	ranges := make([]allocation.Range, 0, len(cfg.IgnoredFrequencies))
	for _, r := range cfg.IgnoredFrequencies {
		ranges = append(ranges, allocation.Range{Lo: r.Lo, Hi: r.Hi})
	}
	return ranges
}

// wireReceiverEvents subscribes to each receiver's per-receiver topic and
// counts every ListenCommand published there in the listen-command metric.
// It does not deliver "listening" acknowledgements to the proxies: nothing
// here calls Proxy.OnListening.
func wireReceiverEvents(bus *eventbus.Bus, receivers []config.Receiver, m *metrics.Metrics) {
	for _, rcv := range receivers {
		bus.Subscribe(eventbus.ReceiverTopic(rcv.Name), func(payload any) {
			if cmd, ok := payload.(receiver.ListenCommand); ok {
				m.RecordListenCommand(cmd.Receiver)
			}
		})
	}
}

func (c *core) start(ctx context.Context) error {
	c.scheduler.Start()

	harnessCtx, cancel := context.WithCancel(ctx)
	c.harnessCancel = cancel
	for i, h := range c.harnesses {
		c.harnessWG.Add(1)
		go c.runHarness(harnessCtx, c.cfg.Receivers[i].Name, h)
	}

	if _, err := c.scheduler.NewJob(
		gocron.DurationJob(5*time.Second),
		gocron.NewTask(c.conductor.Reconcile),
		gocron.WithName("reconcile"),
		gocron.WithStartImmediately(),
	); err != nil {
		return fmt.Errorf("scheduling reconciliation: %w", err)
	}

	if c.metricsSrv != nil {
		go func() {
			if err := c.metricsSrv.ListenAndServe(); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}
	if c.pprofSrv != nil {
		go func() {
			if err := c.pprofSrv.ListenAndServe(); err != nil {
				slog.Error("pprof server stopped", "error", err)
			}
		}()
	}

	return nil
}

// runHarness runs a receiver's process harness across restarts until ctx is
// cancelled or the harness reaches StateDone (spec.md §4.9).
func (c *core) runHarness(ctx context.Context, name string, h *process.Harness) {
	defer c.harnessWG.Done()
	for {
		if err := h.Prepare(ctx); err != nil {
			return
		}
		outcome := h.Run(ctx)
		c.metrics.RecordHarnessExit(name, stateLabel(outcome))
		if outcome.Err != nil {
			slog.Error("receiver harness stopped", "receiver", name, "error", outcome.Err)
		}
		if outcome.State == process.StateDone {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func stateLabel(o process.Outcome) string {
	if o.State == process.StateDone {
		return "done"
	}
	return "restart"
}

// shutdown stops the scheduler and refreshers, then asks every running
// process to terminate, escalating to kill after a grace period (spec.md
// §5), and finally closes the optional diagnostic servers.
func (c *core) shutdown(ctx context.Context) {
	if err := c.scheduler.StopJobs(); err != nil {
		slog.Error("failed to stop scheduled jobs", "error", err)
	}
	if err := c.scheduler.Shutdown(); err != nil {
		slog.Error("failed to shut down scheduler", "error", err)
	}
	for _, r := range c.refreshers {
		if err := r.Stop(); err != nil {
			slog.Warn("failed to stop refresher cleanly", "error", err)
		}
	}

	if c.harnessCancel != nil {
		for _, h := range c.harnesses {
			if err := h.Terminate(); err != nil {
				slog.Warn("failed to terminate receiver process", "error", err)
			}
		}
		c.harnessCancel()

		const grace = 5 * time.Second
		done := make(chan struct{})
		go func() { c.harnessWG.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(grace):
			for _, h := range c.harnesses {
				if err := h.Kill(); err != nil {
					slog.Warn("failed to kill receiver process", "error", err)
				}
			}
			<-done
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if c.metricsSrv != nil {
		_ = c.metricsSrv.Shutdown(shutdownCtx)
	}
	if c.pprofSrv != nil {
		_ = c.pprofSrv.Shutdown(shutdownCtx)
	}
}
