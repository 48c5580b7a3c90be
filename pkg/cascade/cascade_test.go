//go:build gocv

package cascade

import (
	"image"
	"os"
	"testing"
)

func TestNewMissingCascade(t *testing.T) {
	if _, err := New("does-not-exist.xml", "does-not-exist.xml"); err == nil {
		t.Fatal("expected error for missing cascade file")
	}
}

func TestDetectOnBlankFrame(t *testing.T) {
	face, eye := os.Getenv("FACE_CASCADE_PATH"), os.Getenv("EYE_CASCADE_PATH")
	if face == "" || eye == "" {
		t.Skip("FACE_CASCADE_PATH and EYE_CASCADE_PATH not set")
	}

	d, err := New(face, eye)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer d.Close()

	faces, err := d.DetectFaces(blankFrame())
	if err != nil {
		t.Fatalf("detect faces: %v", err)
	}
	if len(faces) != 0 {
		t.Fatalf("expected no faces on a blank frame, got %v", faces)
	}
}

func blankFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 320, 240))
}
