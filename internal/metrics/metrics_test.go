package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/huangsam/runlens/internal/iocache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ iocache.Observer = CacheObserver{} // Compile-time check

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "metrics", metricLabel("metrics:ALL"))
	assert.Equal(t, "last_executed", metricLabel("last_executed:10:EDS"))
	assert.Equal(t, "heatmap", metricLabel("heatmap"))
}

func TestCacheObserver(t *testing.T) {
	obs := CacheObserver{}
	before := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("trends", "hit"))
	obs.Hit("trends:ALL")
	obs.Hit("trends:EDS")
	assert.Equal(t, before+2, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("trends", "hit")))

	obs.Miss("trends:ALL")
	obs.Computed("trends:ALL", 20*time.Millisecond, nil)
	obs.Computed("trends:ALL", -time.Second, errors.New("boom"))
	assert.Equal(t, 2, testutil.CollectAndCount(computeDurationSeconds))
}

func TestObserveLoadAndSubscribers(t *testing.T) {
	ObserveLoad("dashboard", time.Second, nil)
	ObserveLoad("analytics", time.Second, errors.New("boom"))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(loadDurationSeconds), 2)

	SetSubscribers(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(pushSubscribers))
}
