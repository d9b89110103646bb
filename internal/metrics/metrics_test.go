package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/faylit/appshell/internal/frame"
	"github.com/faylit/appshell/internal/push"
	"github.com/faylit/appshell/internal/pushreg"
)

var (
	_ frame.Recorder   = (*Metrics)(nil)
	_ push.Recorder    = (*Metrics)(nil)
	_ pushreg.Recorder = (*Metrics)(nil)
)

func TestCounters(t *testing.T) {
	m := New()

	m.Navigation(frame.NavAssign)
	m.Navigation(frame.NavAssign)
	m.Navigation(frame.NavInPlace)
	m.Load(frame.OutcomeFallback)
	m.Delivery(push.ResultGone)
	m.Registration(pushreg.OutcomeDenied.String())

	if got := testutil.ToFloat64(m.navigations.WithLabelValues("assign")); got != 2 {
		t.Errorf("navigations[assign] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.navigations.WithLabelValues("in_place")); got != 1 {
		t.Errorf("navigations[in_place] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.loads.WithLabelValues("fallback")); got != 1 {
		t.Errorf("loads[fallback] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("gone")); got != 1 {
		t.Errorf("deliveries[gone] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.registrations.WithLabelValues("denied")); got != 1 {
		t.Errorf("registrations[denied] = %v, want 1", got)
	}
}

func TestSessionGauge(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	if got := testutil.ToFloat64(m.sessions); got != 1 {
		t.Errorf("sessions = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Load(frame.OutcomeConfirmed)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `appshell_frame_loads_total{outcome="confirmed"} 1`) {
		t.Errorf("exposition missing load counter:\n%s", body)
	}
}
