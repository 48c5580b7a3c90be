package proctoring

import (
	"ProctorWatch/internal/entity"
	"time"
)

const Version = "1.0.0"

type AnalyzeRequest struct {
	Image string `json:"image" validate:"required"`
}

// AnalysisResult is the per-frame result shown by the web client.
type AnalysisResult struct {
	Status          entity.Status      `json:"status"`
	Confidence      int                `json:"confidence"`
	Details         []string           `json:"details"`
	Duration        float64            `json:"duration"`
	FacesCount      int                `json:"faces_count"`
	EyeAnalysis     entity.EyeAnalysis `json:"eye_analysis"`
	ScreenshotTaken bool               `json:"screenshot_taken"`
	ScreenshotPath  string             `json:"screenshot_path,omitempty"`
}

type AnalyzeResponse struct {
	Success            bool           `json:"success"`
	Result             AnalysisResult `json:"result"`
	TotalDetections    int            `json:"total_detections"`
	SessionScreenshots int            `json:"session_screenshots"`
}

type StatsResponse struct {
	TotalDetections  int               `json:"total_detections"`
	ScreenshotsCount int               `json:"screenshots_count"`
	LastStatus       entity.Status     `json:"last_status"`
	Screenshots      []entity.Incident `json:"screenshots"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	PublisherConnected   = "connected"
	PublisherUnreachable = "unreachable"
	PublisherDisabled    = "disabled"
)

type HealthResponse struct {
	Status        string `json:"status"`
	Detector      string `json:"detector"`
	DetectorReady bool   `json:"detector_ready"`
	Publisher     string `json:"publisher"`
	Version       string `json:"version"`
}

// ConfigRequest is a partial update; omitted fields keep their value.
type ConfigRequest struct {
	CheatThreshold     *float64 `json:"cheat_threshold"`
	EyeClosedThreshold *float64 `json:"eye_closed_threshold"`
	NoEyesThreshold    *float64 `json:"no_eyes_threshold"`
}

type ConfigResponse struct {
	entity.MonitorSettings
	ScreenshotsDir string `json:"screenshots_dir"`
}

// IncidentEvent is published to subscribers whenever an incident is confirmed.
type IncidentEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	Details         []string  `json:"details"`
	Confidence      int       `json:"confidence"`
	FacesCount      int       `json:"faces_count"`
	Duration        float64   `json:"duration"`
	Screenshot      string    `json:"screenshot,omitempty"`
	TotalDetections int       `json:"total_detections"`
}
