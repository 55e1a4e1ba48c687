package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// stubStore answers every call with err.
type stubStore struct{ err error }

func (s stubStore) Select(context.Context, string, types.Query) ([]types.Row, error) {
	return []types.Row{}, s.err
}

func (s stubStore) Insert(context.Context, string, types.Row, *types.Join) (types.Row, error) {
	return types.Row{}, s.err
}

func (s stubStore) Update(context.Context, string, string, types.Row, *types.Join) (types.Row, error) {
	return types.Row{}, s.err
}

func (s stubStore) Delete(context.Context, string, string) error { return s.err }

func (s stubStore) Upsert(context.Context, string, types.Row, []string) (types.Row, error) {
	return types.Row{}, s.err
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	ok := Instrument(stubStore{}, c)
	_, _ = ok.Select(ctx, "accounts", types.Query{})
	_, _ = ok.Select(ctx, "accounts", types.Query{})
	_, _ = ok.Insert(ctx, "accounts", types.Row{}, nil)
	_, _ = ok.Upsert(ctx, "field_values", types.Row{}, nil)

	missing := Instrument(stubStore{err: types.ErrNotFound}, c)
	_, _ = missing.Update(ctx, "accounts", "x", types.Row{}, nil)
	_ = missing.Delete(ctx, "accounts", "x")

	broken := Instrument(stubStore{err: errors.New("down")}, c)
	err = broken.Delete(ctx, "statuses", "x")
	assert.EqualError(t, err, "down", "errors pass through unchanged")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Operations.WithLabelValues("accounts", "select", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("accounts", "delete", OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("statuses", "delete", OutcomeError)))

	counts, err := Summarize(reg)
	require.NoError(t, err)
	got := map[Count]bool{}
	var total float64
	for _, cnt := range counts {
		got[cnt] = true
		total += cnt.Value
	}
	assert.Equal(t, 7.0, total)
	assert.True(t, got[Count{Table: "field_values", Op: "upsert", Outcome: OutcomeOK, Value: 1}])
	assert.True(t, got[Count{Table: "accounts", Op: "update", Outcome: OutcomeNotFound, Value: 1}])

	assert.Equal(t, 6, testutil.CollectAndCount(c.Latency), "one latency series per table and op")
}

func TestNewCollectorsRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollectors(reg)
	require.NoError(t, err)
	_, err = NewCollectors(reg)
	assert.Error(t, err)
}
