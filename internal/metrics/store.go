// Package metrics instruments a types.RemoteStore with Prometheus counters
// and latency histograms.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Collectors groups the metrics recorded for remote operations.
type Collectors struct {
	Operations *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
}

// NewCollectors creates the collectors and registers them on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldbook",
			Name:      "remote_operations_total",
			Help:      "Remote store operations by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fieldbook",
			Name:      "remote_operation_seconds",
			Help:      "Remote store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "op"}),
	}
	for _, col := range []prometheus.Collector{c.Operations, c.Latency} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

var _ types.RemoteStore = (*Store)(nil)

// Store wraps a RemoteStore and records every call.
type Store struct {
	next types.RemoteStore
	c    *Collectors
}

// Instrument returns a RemoteStore that records each call of next on c.
func Instrument(next types.RemoteStore, c *Collectors) *Store {
	return &Store{next: next, c: c}
}

func (s *Store) observe(table, op string, start time.Time, err error) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, types.ErrNotFound):
		outcome = OutcomeNotFound
	case err != nil:
		outcome = OutcomeError
	}
	s.c.Operations.WithLabelValues(table, op, outcome).Inc()
	s.c.Latency.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}

// Select implements types.RemoteStore.
func (s *Store) Select(ctx context.Context, table string, q types.Query) ([]types.Row, error) {
	start := time.Now()
	rows, err := s.next.Select(ctx, table, q)
	s.observe(table, "select", start, err)
	return rows, err
}

// Insert implements types.RemoteStore.
func (s *Store) Insert(ctx context.Context, table string, row types.Row, join *types.Join) (types.Row, error) {
	start := time.Now()
	out, err := s.next.Insert(ctx, table, row, join)
	s.observe(table, "insert", start, err)
	return out, err
}

// Update implements types.RemoteStore.
func (s *Store) Update(ctx context.Context, table, id string, patch types.Row, join *types.Join) (types.Row, error) {
	start := time.Now()
	out, err := s.next.Update(ctx, table, id, patch, join)
	s.observe(table, "update", start, err)
	return out, err
}

// Delete implements types.RemoteStore.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, table, id)
	s.observe(table, "delete", start, err)
	return err
}

// Upsert implements types.RemoteStore.
func (s *Store) Upsert(ctx context.Context, table string, row types.Row, conflict []string) (types.Row, error) {
	start := time.Now()
	out, err := s.next.Upsert(ctx, table, row, conflict)
	s.observe(table, "upsert", start, err)
	return out, err
}

// Count is one counter sample from Summarize.
type Count struct {
	Table   string
	Op      string
	Outcome string
	Value   float64
}

// Summarize gathers the operation counters from g, sorted as the registry
// reports them.
func Summarize(g prometheus.Gatherer) ([]Count, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Count
	for _, mf := range families {
		if mf.GetName() != "fieldbook_remote_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			c := Count{Value: m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "table":
					c.Table = lp.GetValue()
				case "op":
					c.Op = lp.GetValue()
				case "outcome":
					c.Outcome = lp.GetValue()
				}
			}
			out = append(out, c)
		}
	}
	return out, nil
}
