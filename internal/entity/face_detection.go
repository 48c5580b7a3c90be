package entity

// FaceRegion is a face bounding box in frame pixel coordinates.
type FaceRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (r FaceRegion) Area() int {
	return r.Width * r.Height
}

func (r FaceRegion) CenterX() int {
	return r.X + r.Width/2
}

// EyeRegion is an eye bounding box relative to the top-left corner of its face.
type EyeRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (r EyeRegion) Area() int {
	return r.Width * r.Height
}

type EyeAnalysis struct {
	EyesDetected bool        `json:"eyes_detected"`
	EyeCount     int         `json:"eyes_count"`
	EyeAreaRatio float64     `json:"eye_ratio"`
	EyePositions []EyeRegion `json:"eye_positions"`
	Notes        []string    `json:"eye_details"`
}

type FrameVerdict struct {
	Status      Status       `json:"status"`
	Confidence  int          `json:"confidence"`
	Reasons     []string     `json:"details"`
	FaceCount   int          `json:"faces_count"`
	Faces       []FaceRegion `json:"faces,omitempty"`
	EyeAnalysis EyeAnalysis  `json:"eye_analysis"`
	// Subject is the face the eye analysis ran on.
	Subject *FaceRegion `json:"subject_face,omitempty"`
}
