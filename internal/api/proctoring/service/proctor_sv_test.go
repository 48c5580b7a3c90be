package proctorService

import (
	"ProctorWatch/internal/api/proctoring"
	"ProctorWatch/internal/entity"
	"ProctorWatch/internal/monitor"
	"ProctorWatch/pkg/metrics"
	"ProctorWatch/pkg/redis"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type stubDetector struct {
	faces []entity.FaceRegion
	ready bool
}

func (d *stubDetector) DetectFaces(frame image.Image) ([]entity.FaceRegion, error) {
	return d.faces, nil
}

func (d *stubDetector) DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error) {
	return []entity.EyeRegion{}, nil
}

func (d *stubDetector) Name() string { return "stub" }
func (d *stubDetector) Ready() bool  { return d.ready }

type stubCapturer struct{ err error }

func (c *stubCapturer) Capture(ctx context.Context, shot monitor.Screenshot) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "screenshots/cheat.jpg", nil
}

type recordingRedis struct {
	mu      sync.Mutex
	events  []any
	done    chan struct{}
	pingErr error
}

func (r *recordingRedis) PublishIncident(ctx context.Context, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, payload)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingRedis) Ping(ctx context.Context) error { return r.pingErr }
func (r *recordingRedis) Close() error                   { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(detector *stubDetector, capturer monitor.Capturer, rdb *recordingRedis, m *metrics.Metrics) IProctorService {
	logger := quietLogger()
	mon := monitor.New(detector, capturer, logger, monitor.SettingsUpdate{})

	var publisher redis.IRedis
	if rdb != nil {
		publisher = rdb
	}
	return NewProctorService(logger, mon, detector, publisher, m, "screenshots")
}

func TestAnalyzePublishesIncident(t *testing.T) {
	rdb := &recordingRedis{done: make(chan struct{}, 1)}
	m := metrics.New()
	svc := newTestService(&stubDetector{}, &stubCapturer{}, rdb, m)
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	now := time.Unix(1700000000, 0)

	first, err := svc.Analyze(context.Background(), frame, now)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if first.Result.Status != entity.StatusSuspicious || first.Result.ScreenshotTaken {
		t.Fatalf("unexpected first result %+v", first.Result)
	}

	second, err := svc.Analyze(context.Background(), frame, now.Add(4*time.Second))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if second.Result.Status != entity.StatusCheatingDetected {
		t.Fatalf("expected cheating detected, got %s", second.Result.Status)
	}
	if !second.Result.ScreenshotTaken || second.Result.ScreenshotPath != "screenshots/cheat.jpg" {
		t.Fatalf("expected screenshot, got %+v", second.Result)
	}
	if second.Result.Duration != 4 {
		t.Fatalf("expected 4s duration, got %v", second.Result.Duration)
	}
	if second.TotalDetections != 1 || second.SessionScreenshots != 1 {
		t.Fatalf("unexpected counters %+v", second)
	}

	select {
	case <-rdb.done:
	case <-time.After(2 * time.Second):
		t.Fatal("incident was not published")
	}
	rdb.mu.Lock()
	event, ok := rdb.events[0].(proctoring.IncidentEvent)
	rdb.mu.Unlock()
	if !ok || event.TotalDetections != 1 || event.Screenshot != "screenshots/cheat.jpg" {
		t.Fatalf("unexpected event %+v", rdb.events[0])
	}

	if m.Incidents.Load() != 1 || m.FramesSuspicious.Load() != 1 || m.FramesCheating.Load() != 1 {
		t.Fatalf("unexpected metrics: incidents=%d suspicious=%d cheating=%d",
			m.Incidents.Load(), m.FramesSuspicious.Load(), m.FramesCheating.Load())
	}
}

func TestAnalyzeCaptureFailureCounted(t *testing.T) {
	m := metrics.New()
	svc := newTestService(&stubDetector{}, &stubCapturer{err: errors.New("disk full")}, nil, m)
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	now := time.Unix(1700000000, 0)

	svc.Analyze(context.Background(), frame, now)
	resp, err := svc.Analyze(context.Background(), frame, now.Add(5*time.Second))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Result.ScreenshotTaken || resp.TotalDetections != 1 {
		t.Fatalf("incident should be kept without screenshot, got %+v", resp)
	}
	if m.CaptureFailures.Load() != 1 {
		t.Fatalf("expected one capture failure, got %d", m.CaptureFailures.Load())
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	svc := newTestService(&stubDetector{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Analyze(ctx, image.NewRGBA(image.Rect(0, 0, 8, 8)), time.Now()); err == nil {
		t.Fatal("expected context error")
	}
	if stats := svc.Stats(context.Background()); stats.LastStatus != entity.StatusSafe {
		t.Fatalf("canceled frame must not touch the session, got %s", stats.LastStatus)
	}
}

func TestConfigUpdateClampsAndReportsDir(t *testing.T) {
	svc := newTestService(&stubDetector{}, nil, nil, nil)

	high := 42.0
	low := 0.01
	resp := svc.UpdateConfig(context.Background(), proctoring.ConfigRequest{
		CheatThreshold:     &high,
		EyeClosedThreshold: &low,
	})

	if resp.EscalationThresholdSeconds != 10 {
		t.Errorf("cheat threshold = %v, want 10", resp.EscalationThresholdSeconds)
	}
	if resp.EyeClosedRatioThreshold != 0.1 {
		t.Errorf("eye threshold = %v, want 0.1", resp.EyeClosedRatioThreshold)
	}
	if resp.NoEyesTimeoutSeconds != monitor.DefaultNoEyesTimeout {
		t.Errorf("no eyes threshold changed to %v", resp.NoEyesTimeoutSeconds)
	}
	if resp.ScreenshotsDir != "screenshots" {
		t.Errorf("screenshots dir = %q", resp.ScreenshotsDir)
	}
	if got := svc.Config(context.Background()); got.EscalationThresholdSeconds != 10 {
		t.Errorf("config not persisted, got %+v", got)
	}
}

func TestResetClearsSession(t *testing.T) {
	svc := newTestService(&stubDetector{}, &stubCapturer{}, nil, nil)
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	now := time.Unix(1700000000, 0)

	svc.Analyze(context.Background(), frame, now)
	svc.Analyze(context.Background(), frame, now.Add(4*time.Second))
	svc.Reset(context.Background())

	stats := svc.Stats(context.Background())
	if stats.TotalDetections != 0 || stats.ScreenshotsCount != 0 || stats.LastStatus != entity.StatusSafe {
		t.Fatalf("expected empty session, got %+v", stats)
	}
	if stats.Screenshots == nil {
		t.Fatal("screenshots should be an empty list, not nil")
	}
}

func TestHealthReportsDetector(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		status string
	}{
		{"ready", true, "healthy"},
		{"not ready", false, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&stubDetector{ready: tt.ready}, nil, nil, nil)
			health := svc.Health(context.Background())
			if health.Status != tt.status || health.Detector != "stub" || health.DetectorReady != tt.ready {
				t.Fatalf("unexpected health %+v", health)
			}
			if health.Version != proctoring.Version {
				t.Fatalf("version = %q", health.Version)
			}
			if health.Publisher != proctoring.PublisherDisabled {
				t.Fatalf("publisher = %q, want disabled", health.Publisher)
			}
		})
	}
}

func TestHealthPingsPublisher(t *testing.T) {
	tests := []struct {
		name      string
		pingErr   error
		publisher string
		status    string
	}{
		{"reachable", nil, proctoring.PublisherConnected, "healthy"},
		{"unreachable", errors.New("dial tcp: connection refused"), proctoring.PublisherUnreachable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb := &recordingRedis{done: make(chan struct{}, 1), pingErr: tt.pingErr}
			svc := newTestService(&stubDetector{ready: true}, nil, rdb, nil)

			health := svc.Health(context.Background())
			if health.Publisher != tt.publisher || health.Status != tt.status {
				t.Fatalf("unexpected health %+v", health)
			}
		})
	}
}
