package monitor

import (
	"ProctorWatch/internal/entity"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrCaptureFailed = errors.New("screenshot capture failed")

type Screenshot struct {
	Frame       image.Image
	Faces       []entity.FaceRegion
	Subject     *entity.FaceRegion
	EyeAnalysis entity.EyeAnalysis
	TakenAt     time.Time
}

// Capturer persists an annotated screenshot and returns a reference to it.
type Capturer interface {
	Capture(ctx context.Context, shot Screenshot) (string, error)
}

type Result struct {
	Verdict entity.FrameVerdict
	// Status is the verdict status, or StatusCheatingDetected on escalation.
	Status     entity.Status
	Duration   time.Duration
	Incident   *entity.Incident
	CaptureErr error
	Snapshot   entity.SessionSnapshot
}

// Monitor owns the session shared by every analyzed frame.
type Monitor struct {
	analyzer *Analyzer
	capturer Capturer
	log      *logrus.Logger

	mu       sync.Mutex
	window   Window
	session  Session
	settings entity.MonitorSettings
}

func New(provider Provider, capturer Capturer, logger *logrus.Logger, update SettingsUpdate) *Monitor {
	return &Monitor{
		analyzer: NewAnalyzer(provider),
		capturer: capturer,
		log:      logger,
		settings: applySettings(DefaultSettings(), update),
	}
}

// AnalyzeFrame runs detection outside the session lock, advances the window and
// session under it, and captures a screenshot on escalation without holding it.
// The incident is counted when escalation is decided but only enters the log
// once capture returns, so for the length of a capture TotalIncidents can be
// ahead of the logged incidents.
func (m *Monitor) AnalyzeFrame(ctx context.Context, frame image.Image, now time.Time) Result {
	verdict := m.analyzer.Analyze(frame)

	m.mu.Lock()
	step := m.window.Observe(verdict.Status, now, secondsToDuration(m.settings.EscalationThresholdSeconds))

	result := Result{
		Verdict:  verdict,
		Status:   verdict.Status,
		Duration: step.Duration,
	}

	var generation uint64
	switch {
	case verdict.Status == entity.StatusSafe:
		m.session.MarkSafe()
	case step.Escalate:
		generation = m.session.OpenIncident()
		result.Status = entity.StatusCheatingDetected
	}

	if !step.Escalate {
		result.Snapshot = m.session.Snapshot()
		m.mu.Unlock()
		return result
	}
	m.mu.Unlock()

	incident := entity.Incident{
		Timestamp:   now,
		Reasons:     verdict.Reasons,
		Confidence:  verdict.Confidence,
		FaceCount:   verdict.FaceCount,
		EyeAnalysis: verdict.EyeAnalysis,
	}

	path, err := m.capture(ctx, frame, verdict, now)
	if err != nil {
		result.CaptureErr = err
		m.log.WithFields(logrus.Fields{
			"error":    err.Error(),
			"duration": step.Duration.Seconds(),
		}).Warn("Incident recorded without screenshot")
	} else {
		incident.ScreenshotPath = path
	}
	result.Incident = &incident

	m.mu.Lock()
	if !m.session.AppendIncident(generation, incident) {
		m.log.WithField("screenshot", path).Debug("Session reset during capture, incident dropped from log")
	}
	result.Snapshot = m.session.Snapshot()
	m.mu.Unlock()

	return result
}

func (m *Monitor) capture(ctx context.Context, frame image.Image, verdict entity.FrameVerdict, now time.Time) (string, error) {
	if m.capturer == nil {
		return "", nil
	}

	path, err := m.capturer.Capture(ctx, Screenshot{
		Frame:       frame,
		Faces:       verdict.Faces,
		Subject:     verdict.Subject,
		EyeAnalysis: verdict.EyeAnalysis,
		TakenAt:     now,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return path, nil
}

// Stats may count an incident whose screenshot is still being captured and is
// therefore not yet in Incidents.
func (m *Monitor) Stats() entity.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot()
}

// Reset clears the session and closes the window in one critical section.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window.Close()
	m.session.Reset()
}

func (m *Monitor) Config() entity.MonitorSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Monitor) UpdateConfig(update SettingsUpdate) entity.MonitorSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = applySettings(m.settings, update)
	return m.settings
}
