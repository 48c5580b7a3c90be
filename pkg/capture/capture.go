package capture

import (
	"ProctorWatch/internal/entity"
	"ProctorWatch/internal/monitor"
	"ProctorWatch/pkg/s3"
	"ProctorWatch/pkg/utils"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const jpegQuality = 90

var (
	faceColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	eyeColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// ScreenshotWriter stores annotated incident frames in a local directory and,
// when a bucket is configured, mirrors them to S3 in the background.
type ScreenshotWriter struct {
	dir    string
	mirror s3.ItfS3
	log    *logrus.Logger
	now    func() time.Time
}

func New(dir string, mirror s3.ItfS3, logger *logrus.Logger) (*ScreenshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshots dir: %w", err)
	}

	return &ScreenshotWriter{
		dir:    dir,
		mirror: mirror,
		log:    logger,
		now:    time.Now,
	}, nil
}

func (w *ScreenshotWriter) Dir() string {
	return w.dir
}

func (w *ScreenshotWriter) Capture(ctx context.Context, shot monitor.Screenshot) (string, error) {
	if shot.Frame == nil {
		return "", fmt.Errorf("no frame to capture")
	}

	canvas := Annotate(shot.Frame, shot.Faces, shot.Subject, shot.EyeAnalysis.EyePositions)

	data, err := utils.EncodeJPEG(canvas, jpegQuality)
	if err != nil {
		return "", fmt.Errorf("encode screenshot: %w", err)
	}

	takenAt := shot.TakenAt
	if takenAt.IsZero() {
		takenAt = w.now()
	}

	name := fileName(takenAt)
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	if w.mirror != nil {
		go w.upload(name, data)
	}

	return path, nil
}

func (w *ScreenshotWriter) upload(name string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	location, err := w.mirror.UploadObject(ctx, name, data, "image/jpeg")
	if err != nil {
		w.log.WithFields(logrus.Fields{
			"file":  name,
			"error": err.Error(),
		}).Error("Failed to mirror screenshot to S3")
		return
	}

	w.log.WithFields(logrus.Fields{
		"file":     name,
		"location": location,
	}).Debug("Screenshot mirrored to S3")
}

// fileName is unique per incident: second resolution timestamp plus a random suffix.
func fileName(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("cheat_%s_%s.jpg", at.Format("20060102_150405"), suffix)
}

// Annotate draws every face box and the eye boxes of subject onto a copy of frame.
func Annotate(frame image.Image, faces []entity.FaceRegion, subject *entity.FaceRegion, eyes []entity.EyeRegion) *image.RGBA {
	canvas := utils.Crop(frame, frame.Bounds())

	for _, face := range faces {
		drawRect(canvas, image.Rect(face.X, face.Y, face.X+face.Width, face.Y+face.Height), faceColor, 2)
	}

	if subject != nil {
		for _, eye := range eyes {
			x, y := subject.X+eye.X, subject.Y+eye.Y
			drawRect(canvas, image.Rect(x, y, x+eye.Width, y+eye.Height), eyeColor, 1)
		}
	}

	return canvas
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}

	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y+t, c)
			img.SetRGBA(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X+t, y, c)
			img.SetRGBA(r.Max.X-1-t, y, c)
		}
	}
}
