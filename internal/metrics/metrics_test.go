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

	"github.com/curatime/portal/internal/notify"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/appointments/12/delete/", "/appointments/:id/delete/"},
		{"/admin/doctors/3/toggle-status/", "/admin/doctors/:id/toggle-status/"},
		{"/doctors/me/?x=1", "/doctors/me/"},
		{"/doctors/", "/doctors/"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), tt.in)
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("DELETE", "/appointments/12/delete/", 204, 10*time.Millisecond)
	m.ObserveRequest("DELETE", "/appointments/13/delete/", 204, 20*time.Millisecond)
	m.ObserveRequest("GET", "/doctors/", 0, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.apiRequests.WithLabelValues("DELETE", "/appointments/:id/delete/", "204")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/doctors/", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.apiDuration))
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/view/doctor/dashboard", 200, time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/view/doctor/dashboard", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestNotifierCountsAndForwards(t *testing.T) {
	m := New()
	collector := &notify.Collector{}
	n := m.Notifier(collector)

	notify.Error(context.Background(), n, "boom")
	notify.Success(context.Background(), n, "ok")
	notify.Error(context.Background(), n, "again")

	assert.Len(t, collector.Items(), 3)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.notifications.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("success")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.LoginRedirect("/doctor/login/")
	m.SessionsPurged(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `curatime_login_redirects_total{login="/doctor/login/"} 1`))
	assert.True(t, strings.Contains(text, "curatime_sessions_purged_total 3"))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
