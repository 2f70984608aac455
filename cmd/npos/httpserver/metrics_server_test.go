// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net/http"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/metrics"
)

func TestMetricsServer(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	metrics.Counter("httpserver_test_count").Add(3)

	url, closeFunc, err := StartMetricsServer("localhost:0")
	require.NoError(t, err)
	defer closeFunc()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)

	family, ok := families["npos_metrics_httpserver_test_count"]
	require.True(t, ok)
	assert.Equal(t, float64(3), family.Metric[0].GetCounter().GetValue())
}

func TestMetricsServerBadAddr(t *testing.T) {
	_, _, err := StartMetricsServer("not-an-address")
	assert.Error(t, err)
}
