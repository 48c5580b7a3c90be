package entity

import (
	"fmt"
	"time"
)

type Status uint8

const (
	StatusSafe             Status = 0
	StatusSuspicious       Status = 1
	StatusCheatingDetected Status = 2
	StatusError            Status = 3
)

var StatusMap = map[Status]string{
	StatusSafe:             "Safe",
	StatusSuspicious:       "Suspicious",
	StatusCheatingDetected: "Cheating Detected",
	StatusError:            "Error",
}

func (s Status) String() string {
	return StatusMap[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range StatusMap {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Incident is a confirmed escalation. ScreenshotPath is empty when the capture failed.
type Incident struct {
	Timestamp      time.Time   `json:"timestamp"`
	Reasons        []string    `json:"details"`
	Confidence     int         `json:"confidence"`
	FaceCount      int         `json:"faces_count"`
	EyeAnalysis    EyeAnalysis `json:"eye_analysis"`
	ScreenshotPath string      `json:"filename,omitempty"`
}

type SessionSnapshot struct {
	TotalIncidents int        `json:"total_detections"`
	LastStatus     Status     `json:"last_status"`
	Incidents      []Incident `json:"screenshots"`
}

type MonitorSettings struct {
	EscalationThresholdSeconds float64 `json:"cheat_threshold"`
	EyeClosedRatioThreshold    float64 `json:"eye_closed_threshold"`
	NoEyesTimeoutSeconds       float64 `json:"no_eyes_threshold"`
}
