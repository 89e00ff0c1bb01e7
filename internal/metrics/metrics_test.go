package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("pkp_indexer")

	m.SetRange(domain.BlockRange{From: 1000, To: 1100})
	m.AddWindows(3, 1)
	m.AddWindows(1, 0)
	m.AddEvents(12, 2)
	m.MarkSuccess(time.Unix(1760000000, 0))
	m.ObserveDuration(42 * time.Second)

	assert.Equal(t, float64(1000), testutil.ToFloat64(m.startBlockGauge))
	assert.Equal(t, float64(1100), testutil.ToFloat64(m.endBlockGauge))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.windowsCounter.WithLabelValues(StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.windowsCounter.WithLabelValues(StatusFailed)))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.eventsCounter.WithLabelValues(StatusOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.eventsCounter.WithLabelValues(StatusFailed)))
	assert.Equal(t, float64(1760000000), testutil.ToFloat64(m.lastSuccessGauge))

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP pkp_indexer_events_total PKPMinted events resolved, by status
# TYPE pkp_indexer_events_total counter
pkp_indexer_events_total{status="failed"} 2
pkp_indexer_events_total{status="ok"} 12
`), "pkp_indexer_events_total")
	require.NoError(t, err)
}

func TestMetrics_RegistriesAreIndependent(t *testing.T) {
	a := NewMetrics("pkp_indexer")
	b := NewMetrics("pkp_indexer")

	a.AddWindows(5, 0)

	assert.Equal(t, float64(5), testutil.ToFloat64(a.windowsCounter.WithLabelValues(StatusOK)))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.windowsCounter.WithLabelValues(StatusOK)))
}

func TestMetrics_Push(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics("pkp_indexer")
	m.AddEvents(1, 0)

	pair := domain.Pair{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd}
	err := m.Push(context.Background(), server.URL, "pkp-indexer", pair)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/pkp-indexer/"), gotPath)
	assert.Contains(t, gotPath, "/blockchain/yellowstone")
	assert.Contains(t, gotPath, "/network/datil_prod")
	assert.NotEmpty(t, gotBody)
}

func TestMetrics_PushError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewMetrics("pkp_indexer")
	err := m.Push(context.Background(), server.URL, "pkp-indexer", domain.Pair{Blockchain: "chronicle", Network: "manzano"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push metrics")
}
