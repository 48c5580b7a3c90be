package monitor

import (
	"ProctorWatch/internal/entity"
	"errors"
	"fmt"
	"image"
	"math"
)

// Provider detects faces in a frame and eyes inside a face. Eye regions are
// relative to the face's top-left corner.
type Provider interface {
	DetectFaces(frame image.Image) ([]entity.FaceRegion, error)
	DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error)
}

const (
	noFaceConfidence        = 80
	multipleFacesConfidence = 90
	smallFaceConfidence     = 70
	edgeFaceConfidence      = 60
	safeConfidence          = 95

	noEyesConfidence     = 85
	oneEyeConfidence     = 60
	closedEyesConfidence = 75
	extraEyesConfidence  = 70

	minFaceAreaRatio     = 0.02
	maxCenterOffsetRatio = 0.3
	closedEyeAreaRatio   = 0.003
)

var ErrEmptyFrame = errors.New("empty frame")

type Analyzer struct {
	provider Provider
}

func NewAnalyzer(provider Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze never fails: provider errors and panics become an Error verdict.
func (a *Analyzer) Analyze(frame image.Image) (verdict entity.FrameVerdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = errorVerdict(fmt.Errorf("%v", r))
		}
	}()

	verdict, err := a.analyze(frame)
	if err != nil {
		return errorVerdict(err)
	}
	return verdict
}

func (a *Analyzer) analyze(frame image.Image) (entity.FrameVerdict, error) {
	if frame == nil || frame.Bounds().Empty() {
		return entity.FrameVerdict{}, ErrEmptyFrame
	}

	faces, err := a.provider.DetectFaces(frame)
	if err != nil {
		return entity.FrameVerdict{}, fmt.Errorf("detect faces: %w", err)
	}

	switch len(faces) {
	case 0:
		return entity.FrameVerdict{
			Status:     entity.StatusSuspicious,
			Confidence: noFaceConfidence,
			Reasons:    []string{"no face detected"},
			EyeAnalysis: entity.EyeAnalysis{
				EyePositions: []entity.EyeRegion{},
				Notes:        []string{"no face detected for eye analysis"},
			},
		}, nil
	case 1:
		return a.analyzeSingleFace(frame, faces[0])
	}

	largest := largestFace(faces)
	eyes, err := a.inspectEyes(frame, largest)
	if err != nil {
		return entity.FrameVerdict{}, err
	}
	eyes.Notes = []string{fmt.Sprintf("analysis on largest of %d faces", len(faces))}

	return entity.FrameVerdict{
		Status:      entity.StatusSuspicious,
		Confidence:  multipleFacesConfidence,
		Reasons:     []string{fmt.Sprintf("multiple faces detected (%d)", len(faces))},
		FaceCount:   len(faces),
		Faces:       faces,
		EyeAnalysis: eyes,
		Subject:     &largest,
	}, nil
}

func (a *Analyzer) analyzeSingleFace(frame image.Image, face entity.FaceRegion) (entity.FrameVerdict, error) {
	width, height := frame.Bounds().Dx(), frame.Bounds().Dy()

	reasons := make([]string, 0, 3)
	confidence := 0

	if float64(face.Area())/float64(width*height) < minFaceAreaRatio {
		reasons = append(reasons, "face too small")
		confidence = max(confidence, smallFaceConfidence)
	}

	offset := face.CenterX() - width/2
	if offset < 0 {
		offset = -offset
	}
	if float64(offset) > maxCenterOffsetRatio*float64(width) {
		reasons = append(reasons, "face positioned at edge")
		confidence = max(confidence, edgeFaceConfidence)
	}

	eyes, err := a.inspectEyes(frame, face)
	if err != nil {
		return entity.FrameVerdict{}, err
	}

	if suspicious, eyeConfidence, reason := judgeEyes(eyes); suspicious {
		reasons = append(reasons, reason)
		confidence = max(confidence, eyeConfidence)
		eyes.Notes = []string{reason}
	} else {
		eyes.Notes = []string{"normal eye behavior detected"}
	}

	verdict := entity.FrameVerdict{
		Status:      entity.StatusSuspicious,
		Confidence:  confidence,
		Reasons:     reasons,
		FaceCount:   1,
		Faces:       []entity.FaceRegion{face},
		EyeAnalysis: eyes,
		Subject:     &face,
	}
	if len(reasons) == 0 {
		verdict.Status = entity.StatusSafe
		verdict.Confidence = safeConfidence
		verdict.Reasons = []string{"normal behavior detected"}
	}

	return verdict, nil
}

func (a *Analyzer) inspectEyes(frame image.Image, face entity.FaceRegion) (entity.EyeAnalysis, error) {
	eyes, err := a.provider.DetectEyes(frame, face)
	if err != nil {
		return entity.EyeAnalysis{}, fmt.Errorf("detect eyes: %w", err)
	}
	if eyes == nil {
		eyes = []entity.EyeRegion{}
	}

	return entity.EyeAnalysis{
		EyesDetected: len(eyes) > 0,
		EyeCount:     len(eyes),
		EyeAreaRatio: eyeAreaRatio(eyes, face),
		EyePositions: eyes,
	}, nil
}

// judgeEyes reports only the first matching condition.
func judgeEyes(eyes entity.EyeAnalysis) (bool, int, string) {
	switch {
	case !eyes.EyesDetected:
		return true, noEyesConfidence, "no eyes detected - looking away or eyes closed"
	case eyes.EyeCount == 1:
		return true, oneEyeConfidence, "only one eye detected - possibly looking sideways"
	case eyes.EyeAreaRatio < closedEyeAreaRatio:
		return true, closedEyesConfidence, "eyes appear closed or heavily squinted"
	case eyes.EyeCount > 2:
		return true, extraEyesConfidence, fmt.Sprintf("unusual number of eyes detected (%d)", eyes.EyeCount)
	}
	return false, 0, ""
}

func eyeAreaRatio(eyes []entity.EyeRegion, face entity.FaceRegion) float64 {
	if len(eyes) == 0 || face.Area() <= 0 {
		return 0
	}

	total := 0
	for _, eye := range eyes {
		total += eye.Area()
	}

	ratio := math.Min(float64(total)/float64(face.Area()), 1)
	return math.Round(ratio*1e6) / 1e6
}

func largestFace(faces []entity.FaceRegion) entity.FaceRegion {
	largest := faces[0]
	for _, face := range faces[1:] {
		if face.Area() > largest.Area() {
			largest = face
		}
	}
	return largest
}

func errorVerdict(err error) entity.FrameVerdict {
	return entity.FrameVerdict{
		Status:     entity.StatusError,
		Confidence: 0,
		Reasons:    []string{"analysis error: " + err.Error()},
		EyeAnalysis: entity.EyeAnalysis{
			EyePositions: []entity.EyeRegion{},
			Notes:        []string{},
		},
	}
}
