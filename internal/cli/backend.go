package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/fieldbook/internal/metrics"
	"github.com/mesh-intelligence/fieldbook/internal/postgres"
	"github.com/mesh-intelligence/fieldbook/internal/sqlite"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// newBackend returns an unattached backend for cfg.Backend.
func newBackend(cfg types.Config) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend, err)
	}
	switch cfg.Backend {
	case types.BackendPostgres:
		return postgres.NewBackend(), nil
	default:
		return sqlite.NewBackend(), nil
	}
}

// attach opens the configured backend and returns its store instrumented
// with a fresh metrics registry.
func (a *app) attach(cfg types.Config) (types.RemoteStore, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return nil, userError(err)
	}
	if err := b.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach %s backend: %w", cfg.Backend, err))
	}
	a.backend = b

	store, err := b.Store()
	if err != nil {
		return nil, sysError(err)
	}
	a.registry = prometheus.NewRegistry()
	collectors, err := metrics.NewCollectors(a.registry)
	if err != nil {
		return nil, sysError(err)
	}
	return metrics.Instrument(store, collectors), nil
}

// report prints the remote operation counts when --metrics is set.
func (a *app) report(w io.Writer) {
	if !a.showMetrics || a.registry == nil {
		return
	}
	counts, err := metrics.Summarize(a.registry)
	if err != nil {
		fmt.Fprintln(w, "metrics:", err)
		return
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Table != counts[j].Table {
			return counts[i].Table < counts[j].Table
		}
		if counts[i].Op != counts[j].Op {
			return counts[i].Op < counts[j].Op
		}
		return counts[i].Outcome < counts[j].Outcome
	})
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", c.Table, c.Op, c.Outcome, c.Value)
	}
}
