//go:build gocv

package cascade

import (
	"ProctorWatch/internal/entity"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Detector runs OpenCV Haar cascades for faces and eyes in-process.
type Detector struct {
	mu   sync.Mutex
	face gocv.CascadeClassifier
	eye  gocv.CascadeClassifier
}

func New(facePath, eyePath string) (*Detector, error) {
	face := gocv.NewCascadeClassifier()
	if !face.Load(facePath) {
		face.Close()
		return nil, fmt.Errorf("failed to load face cascade %s", facePath)
	}

	eye := gocv.NewCascadeClassifier()
	if !eye.Load(eyePath) {
		face.Close()
		eye.Close()
		return nil, fmt.Errorf("failed to load eye cascade %s", eyePath)
	}

	return &Detector{face: face, eye: eye}, nil
}

func (d *Detector) Name() string {
	return "cascade"
}

func (d *Detector) Ready() bool {
	return true
}

func (d *Detector) DetectFaces(frame image.Image) ([]entity.FaceRegion, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	d.mu.Lock()
	rects := d.face.DetectMultiScaleWithParams(gray, 1.1, 5, 0, image.Pt(30, 30), image.Point{})
	d.mu.Unlock()

	faces := make([]entity.FaceRegion, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, entity.FaceRegion{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return faces, nil
}

func (d *Detector) DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	rect := image.Rect(face.X, face.Y, face.X+face.Width, face.Y+face.Height).
		Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
	if rect.Empty() {
		return []entity.EyeRegion{}, nil
	}

	roi := gray.Region(rect)
	defer roi.Close()

	d.mu.Lock()
	rects := d.eye.DetectMultiScaleWithParams(roi, 1.1, 5, 0, image.Pt(10, 10), image.Pt(50, 50))
	d.mu.Unlock()

	eyes := make([]entity.EyeRegion, 0, len(rects))
	for _, r := range rects {
		eyes = append(eyes, entity.EyeRegion{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return eyes, nil
}

func (d *Detector) Close() {
	d.face.Close()
	d.eye.Close()
}

func grayMat(frame image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert frame: %w", err)
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(rgb, &gray, gocv.ColorBGRToGray)
	return gray, nil
}
