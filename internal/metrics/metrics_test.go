package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordRoute(RouteApplied)
	c.RecordRoute(RouteDiscarded)
	c.RecordRoute(RouteDiscarded)
	c.RecordBooking("booked")
	c.RecordBackendCall("ride_detail", "200", 15*time.Millisecond)

	out := scrape(t, c)
	for _, want := range []string{
		`carnest_route_resolutions_total{outcome="applied"} 1`,
		`carnest_route_resolutions_total{outcome="discarded"} 2`,
		`carnest_booking_attempts_total{outcome="booked"} 1`,
		`carnest_backend_requests_total{endpoint="ride_detail",status="200"} 1`,
		`carnest_backend_request_duration_seconds_count{endpoint="ride_detail"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordRoute(RouteFailed)
	r.RecordBooking("failed")
	r.RecordBackendCall("profile", "500", time.Second)
}
