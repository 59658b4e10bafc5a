package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("test")

	m.ObserveBacktest(StatusSuccess, "yahoo", 120*time.Millisecond, 4)
	m.ObserveBacktest(StatusInsufficientData, "yahoo", time.Millisecond, 0)
	m.ObservePriceCache(true)
	m.ObservePriceCache(false)
	m.ObservePriceCache(false)
	m.ObserveJob("backtest_watchlist", "completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backtestRuns.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backtestRuns.WithLabelValues(StatusInsufficientData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.priceCache.WithLabelValues(CacheResultHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.priceCache.WithLabelValues(CacheResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("backtest_watchlist", "completed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.ObservePriceFetch("yahoo", errors.New("timeout"), time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `test_price_fetch_duration_seconds_count{source="yahoo",status="error"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New("same")
		_ = New("same")
	})
}
