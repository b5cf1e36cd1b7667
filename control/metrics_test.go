package control_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kienpl96/kannel/control"
)

func TestMetricsRegistryCountersIncrement(t *testing.T) {
	mr := control.NewMetricsRegistry()

	mr.TimersFired.Add(3)
	mr.ConnBytesRead.Add(100)
	mr.TimersActive.Set(2)

	require.InDelta(t, 3, testutil.ToFloat64(mr.TimersFired), 0)
	require.InDelta(t, 100, testutil.ToFloat64(mr.ConnBytesRead), 0)
	require.InDelta(t, 2, testutil.ToFloat64(mr.TimersActive), 0)
}

func TestMetricsRegistryGatherIncludesAllCollectors(t *testing.T) {
	mr := control.NewMetricsRegistry()
	families, err := mr.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)
}
