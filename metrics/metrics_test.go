// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	var m Metrics = noop{}
	m.GetOrCreateCountMeter("c").Add(1)
	m.GetOrCreateCountVecMeter("cv", []string{"l"}).AddWithLabel(1, map[string]string{"l": "x"})
	m.GetOrCreateGaugeMeter("g").Set(1)
	m.GetOrCreateHistogramMeter("h", nil).Observe(1)
	assert.Nil(t, m.GetOrCreateHandler())
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	lazy := LazyLoadCounter("test_lazy_count")
	lazy().Add(2)
	Counter("test_lazy_count").Add(3)
	CounterVec("test_outcome_count", []string{"outcome"}).AddWithLabel(1, map[string]string{"outcome": "paid"})
	Gauge("test_gauge").Set(7)
	Histogram("test_hist", BucketStepGas).Observe(30_000)

	assert.Same(t, Counter("test_lazy_count"), lazy(), "same name resolves to the same meter")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, float64(5), values[namespace+"_test_lazy_count"])
	assert.Equal(t, float64(1), values[namespace+"_test_outcome_count"])
	assert.Equal(t, float64(7), values[namespace+"_test_gauge"])
	assert.Equal(t, float64(1), values[namespace+"_test_hist"])

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), namespace+"_test_gauge 7")
}
