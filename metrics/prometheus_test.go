// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	assert.False(t, NoOp())

	Counter("bonds").Add(1)
	for range 4 {
		Counter("bonds").Add(1)
	}
	slashes := CounterVec("slashes", []string{"stage"})
	slashes.AddWithLabel(2, map[string]string{"stage": "reported"})
	slashes.AddWithLabel(1, map[string]string{"stage": "applied"})

	hist := Histogram("election_ms", BucketMillis)
	hist.Observe(120)
	hist.Observe(3000)

	era := Gauge("active_era")
	era.Set(7)
	era.Add(1)

	families := gather(t)

	assert.Equal(t, float64(5), families["npos_metrics_bonds"].Metric[0].GetCounter().GetValue())
	var slashTotal float64
	for _, m := range families["npos_metrics_slashes"].Metric {
		slashTotal += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(3), slashTotal)

	h := families["npos_metrics_election_ms"].Metric[0].GetHistogram()
	assert.Equal(t, uint64(2), h.GetSampleCount())
	assert.Equal(t, float64(3120), h.GetSampleSum())

	assert.Equal(t, float64(8), families["npos_metrics_active_era"].Metric[0].GetGauge().GetValue())
	assert.NotNil(t, HTTPHandler())

	// same name, same meter
	Counter("bonds").Add(1)
	assert.Equal(t, float64(6), gather(t)["npos_metrics_bonds"].Metric[0].GetCounter().GetValue())
}

func TestLazyLoading(t *testing.T) {
	metrics = noopMetrics{}
	assert.True(t, NoOp())

	for _, a := range []any{
		Gauge("noopGauge"),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
	} {
		require.IsType(t, noopMeter{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)

	// meters are created on first use, by the registry in place at that time
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	assert.Same(t, lazyGauge(), lazyGauge())
}
