package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerMetrics_InstanciasIndependientes(t *testing.T) {
	a := NewServerMetrics("api")
	b := NewServerMetrics("api")

	a.ObserveTx("commit")
	a.ObserveTx("commit")
	b.ObserveTx("rollback")

	assert.Contains(t, scrape(t, a), `marketplace_api_db_transactions_total{outcome="commit"} 2`)
	assert.NotContains(t, scrape(t, b), `outcome="commit"`)
	assert.Contains(t, scrape(t, b), `marketplace_api_db_transactions_total{outcome="rollback"} 1`)
}

func TestObserve_NilNoHaceNada(t *testing.T) {
	var m *ServerMetrics
	m.ObserveTx("commit")
	m.ObserveEvent("order.created", "ok")
}

func TestHandler_ExponeMetricas(t *testing.T) {
	m := NewServerMetrics("api")
	m.Requests.WithLabelValues("health", "200").Inc()
	m.ObserveEvent("order.created", "ok")

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, "marketplace_api_http_requests_total"))
	assert.True(t, strings.Contains(body, `marketplace_api_events_emitted_total{status="ok",type="order.created"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func scrape(t *testing.T, m *ServerMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}
