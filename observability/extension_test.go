package observability_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/observability"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/types"
)

var (
	owner = types.MustParseAddress("0x1000000000000000000000000000000000000001")
	alice = types.MustParseAddress("0x2000000000000000000000000000000000000002")
	bob   = types.MustParseAddress("0x3000000000000000000000000000000000000003")
)

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewPedanticRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	l := dailymood.New(memory.New(),
		dailymood.WithLogger(slog.New(slog.DiscardHandler)),
		dailymood.WithPlugin(metrics),
	)

	c, err := l.Deploy(ctx, owner, []types.Address{alice})
	require.NoError(t, err)

	_, err = c.PushMood(ctx, alice, "rested")
	require.NoError(t, err)
	_, err = c.PushMood(ctx, alice, "hungry")
	require.NoError(t, err)
	_, err = c.PushMood(ctx, bob, "locked out")
	require.Error(t, err)

	require.NoError(t, c.AddAllowed(ctx, owner, types.ZeroAddress))
	require.NoError(t, c.RemoveAllowed(ctx, owner, bob))
	_, err = c.RemoveMoodByIndex(ctx, owner, alice, 0)
	require.NoError(t, err)
	require.NoError(t, c.RemoveMoods(ctx, owner, alice))

	assert.InDelta(t, 1, value(t, metrics.ContractsDeployed), 0)
	assert.InDelta(t, 2, value(t, metrics.MoodsPushed), 0)
	assert.InDelta(t, 1, value(t, metrics.AccessDenied), 0)
	assert.InDelta(t, 1, value(t, metrics.AllowedAdded), 0)
	assert.InDelta(t, 1, value(t, metrics.WildcardAdded), 0)
	assert.InDelta(t, 1, value(t, metrics.AllowedAbsent), 0)
	assert.InDelta(t, 0, value(t, metrics.AllowedRemoved), 0)
	assert.InDelta(t, 1, value(t, metrics.MoodsRemoved), 0)
	assert.InDelta(t, 1, value(t, metrics.LogsCleared), 0)

	expected := `
# HELP dailymood_mood_pushed_total Count of dailymood.mood.pushed events.
# TYPE dailymood_mood_pushed_total counter
dailymood_mood_pushed_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "dailymood_mood_pushed_total"))
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	a := f.Counter("dailymood.test.events")
	b := f.Counter("dailymood.test.events")
	a.Inc()
	b.Add(2)

	assert.Same(t, a, b)
	n, err := testutil.GatherAndCount(reg, "dailymood_test_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.InDelta(t, 3, value(t, a), 0)
}

func value(t *testing.T, c observability.Counter) float64 {
	t.Helper()
	col, ok := c.(prometheus.Collector)
	require.True(t, ok, "counter is not a prometheus collector")
	return testutil.ToFloat64(col)
}
