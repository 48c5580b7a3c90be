//go:build !gocv

package proctorService

import (
	"ProctorWatch/internal/entity"
	"ProctorWatch/internal/monitor"
	"ProctorWatch/pkg/cascade"
	"image"
	"testing"
	"time"

	"golang.org/x/net/context"
)

func TestCascadeWithoutOpenCVIsDegraded(t *testing.T) {
	detector, err := cascade.New("face.xml", "eye.xml")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger := quietLogger()
	mon := monitor.New(detector, nil, logger, monitor.SettingsUpdate{})
	svc := NewProctorService(logger, mon, detector, nil, nil, "screenshots")

	health := svc.Health(context.Background())
	if health.Status != "degraded" || health.Detector != "cascade" || health.DetectorReady {
		t.Fatalf("unexpected health %+v", health)
	}

	resp, err := svc.Analyze(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 48)), time.Now())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Result.Status != entity.StatusError || resp.TotalDetections != 0 {
		t.Fatalf("expected an error frame, got %+v", resp)
	}
}
