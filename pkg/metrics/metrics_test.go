package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveFrame("Safe", 10*time.Millisecond)
	m.ObserveFrame("Cheating Detected", 20*time.Millisecond)
	m.ObserveFrame("Error", time.Millisecond)
	m.Incidents.Add(1)
	m.CaptureFailures.Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`proctor_frames_total{status="safe"} 1`,
		`proctor_frames_total{status="cheating_detected"} 1`,
		`proctor_frames_total{status="error"} 1`,
		`proctor_frames_total{status="suspicious"} 0`,
		"proctor_incidents_total 1",
		"proctor_capture_failures_total 2",
		"proctor_analysis_duration_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
