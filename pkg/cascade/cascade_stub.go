//go:build !gocv

package cascade

import (
	"ProctorWatch/internal/entity"
	"errors"
	"image"
)

var ErrUnavailable = errors.New("cascade detector requires a build with -tags gocv")

// Detector stands in for the OpenCV provider. It is never ready and every
// detection fails, so frames report an error and health reports degraded.
type Detector struct{}

func New(facePath, eyePath string) (*Detector, error) {
	return &Detector{}, nil
}

func (d *Detector) Name() string {
	return "cascade"
}

func (d *Detector) Ready() bool {
	return false
}

func (d *Detector) DetectFaces(frame image.Image) ([]entity.FaceRegion, error) {
	return nil, ErrUnavailable
}

func (d *Detector) DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error) {
	return nil, ErrUnavailable
}

func (d *Detector) Close() {}
