package monitor

import (
	"ProctorWatch/internal/entity"
	"context"
	"errors"
	"image"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

type fakeProvider struct {
	faces   []entity.FaceRegion
	eyes    []entity.EyeRegion
	faceErr error
	eyeErr  error
	panics  bool

	mu       sync.Mutex
	eyeCalls []entity.FaceRegion
}

func (p *fakeProvider) DetectFaces(frame image.Image) ([]entity.FaceRegion, error) {
	if p.panics {
		panic("classifier exploded")
	}
	return p.faces, p.faceErr
}

func (p *fakeProvider) DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error) {
	p.mu.Lock()
	p.eyeCalls = append(p.eyeCalls, face)
	p.mu.Unlock()
	return p.eyes, p.eyeErr
}

type fakeCapturer struct {
	mu    sync.Mutex
	shots []Screenshot
	err   error
	// hook runs inside Capture before it returns.
	hook func()
}

func (c *fakeCapturer) Capture(ctx context.Context, shot Screenshot) (string, error) {
	if c.hook != nil {
		c.hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.shots = append(c.shots, shot)
	return "screenshots/shot.jpg", nil
}

func (c *fakeCapturer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shots)
}

var errProvider = errors.New("provider offline")

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 640, 480))
}

// centeredFace is large enough and centered in a 640x480 frame.
func centeredFace() entity.FaceRegion {
	return entity.FaceRegion{X: 220, Y: 140, Width: 200, Height: 200}
}

func twoEyes() []entity.EyeRegion {
	return []entity.EyeRegion{
		{X: 40, Y: 60, Width: 30, Height: 20},
		{X: 130, Y: 60, Width: 30, Height: 20},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func float(v float64) *float64 {
	return &v
}
