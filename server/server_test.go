package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/michaelpento.lv/arbbot/utils/metrics"
)

type readyFlag struct{ atomic.Bool }

func (r *readyFlag) Ready() bool { return r.Load() }

func newTestServer(t *testing.T) (*httptest.Server, *readyFlag, *metrics.CycleMetrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewCycleMetrics(reg, "arbbot")
	flag := &readyFlag{}

	s, err := New(Config{
		Address:   ":0",
		Gatherer:  reg,
		Readiness: flag,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, flag, m
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReady(t *testing.T) {
	ts, flag, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "not_ready", resp.Status)

	flag.Store(true)
	code, body = get(t, ts.URL+"/ready")
	assert.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "ready", resp.Status)
}

func TestMetricsAndStatus(t *testing.T) {
	ts, flag, m := newTestServer(t)
	flag.Store(true)
	m.Cycles.Add(3)

	code, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "arbbot_cycles_total 3")

	code, body = get(t, ts.URL+"/status")
	assert.Equal(t, http.StatusOK, code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.Ready)
	assert.Equal(t, float64(3), status.Counters["arbbot_cycles_total"])
}

func TestNewValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()

	_, err := New(Config{Gatherer: reg, Logger: logger})
	assert.Error(t, err)
	_, err = New(Config{Address: ":9090", Logger: logger})
	assert.Error(t, err)
	_, err = New(Config{Address: ":9090", Gatherer: reg})
	assert.Error(t, err)
}
