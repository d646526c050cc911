package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ItemFinished(ResultDone)
	m.ItemFinished(ResultDone)
	m.ItemFinished(ResultFailed)
	m.AddBytes(1024)
	m.AddBytes(512)
	m.MuxFailed("mux")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsTotal.WithLabelValues(ResultDone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1536.0, testutil.ToFloat64(m.bytesDownloaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.muxFailures.WithLabelValues("mux")))
}

func TestActiveRuns(t *testing.T) {
	m := New()

	m.RunStarted()
	m.RunStarted()
	m.RunFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRuns))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ItemFinished(ResultDone)
		m.AddBytes(1)
		m.MuxFailed("mux")
		m.RunStarted()
		m.RunFinished()
	})
}

func TestRouter(t *testing.T) {
	m := New()
	m.ItemFinished(ResultDone)

	srv := httptest.NewServer(NewRouter(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `ytmux_items_total{result="done"} 1`))

	resp2, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
