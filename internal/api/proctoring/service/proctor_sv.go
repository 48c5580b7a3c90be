package proctorService

import (
	"ProctorWatch/internal/api/proctoring"
	"ProctorWatch/internal/monitor"
	contextPkg "ProctorWatch/pkg/context"
	"ProctorWatch/pkg/log"
	"image"
	"time"

	"golang.org/x/net/context"
)

func (s *proctorService) Analyze(ctx context.Context, frame image.Image, now time.Time) (*proctoring.AnalyzeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.monitor.AnalyzeFrame(ctx, frame, now)
	s.record(result, time.Since(start))

	if result.Incident != nil {
		go s.publish(result)
	}

	return &proctoring.AnalyzeResponse{
		Success:            true,
		Result:             toAnalysisResult(result),
		TotalDetections:    result.Snapshot.TotalIncidents,
		SessionScreenshots: len(result.Snapshot.Incidents),
	}, nil
}

func (s *proctorService) record(result monitor.Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	s.metrics.ObserveFrame(result.Status.String(), elapsed)
	if result.Incident != nil {
		s.metrics.Incidents.Add(1)
	}
	if result.CaptureErr != nil {
		s.metrics.CaptureFailures.Add(1)
	}
}

func (s *proctorService) publish(result monitor.Result) {
	if s.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := proctoring.IncidentEvent{
		Timestamp:       result.Incident.Timestamp,
		Details:         result.Incident.Reasons,
		Confidence:      result.Incident.Confidence,
		FacesCount:      result.Incident.FaceCount,
		Duration:        result.Duration.Seconds(),
		Screenshot:      result.Incident.ScreenshotPath,
		TotalDetections: result.Snapshot.TotalIncidents,
	}

	if err := s.redis.PublishIncident(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailures.Add(1)
		}
		s.log.WithFields(log.Fields{
			"error":      err.Error(),
			"screenshot": event.Screenshot,
		}).Warn("Failed to publish incident")
	}
}

func toAnalysisResult(result monitor.Result) proctoring.AnalysisResult {
	out := proctoring.AnalysisResult{
		Status:      result.Status,
		Confidence:  result.Verdict.Confidence,
		Details:     result.Verdict.Reasons,
		Duration:    result.Duration.Seconds(),
		FacesCount:  result.Verdict.FaceCount,
		EyeAnalysis: result.Verdict.EyeAnalysis,
	}

	if result.Incident != nil && result.Incident.ScreenshotPath != "" {
		out.ScreenshotTaken = true
		out.ScreenshotPath = result.Incident.ScreenshotPath
	}

	return out
}

func (s *proctorService) Stats(ctx context.Context) proctoring.StatsResponse {
	snapshot := s.monitor.Stats()

	return proctoring.StatsResponse{
		TotalDetections:  snapshot.TotalIncidents,
		ScreenshotsCount: len(snapshot.Incidents),
		LastStatus:       snapshot.LastStatus,
		Screenshots:      snapshot.Incidents,
	}
}

func (s *proctorService) Reset(ctx context.Context) {
	s.monitor.Reset()
	s.log.WithField(log.RequestIDKey, contextPkg.GetRequestID(ctx)).Info("Session reset")
}

func (s *proctorService) Config(ctx context.Context) proctoring.ConfigResponse {
	return proctoring.ConfigResponse{
		MonitorSettings: s.monitor.Config(),
		ScreenshotsDir:  s.screenshotsDir,
	}
}

func (s *proctorService) UpdateConfig(ctx context.Context, req proctoring.ConfigRequest) proctoring.ConfigResponse {
	settings := s.monitor.UpdateConfig(monitor.SettingsUpdate{
		EscalationThresholdSeconds: req.CheatThreshold,
		EyeClosedRatioThreshold:    req.EyeClosedThreshold,
		NoEyesTimeoutSeconds:       req.NoEyesThreshold,
	})

	s.log.WithFields(log.Fields{
		"cheat_threshold":      settings.EscalationThresholdSeconds,
		"eye_closed_threshold": settings.EyeClosedRatioThreshold,
		"no_eyes_threshold":    settings.NoEyesTimeoutSeconds,
	}).Info("Monitor settings updated")

	return proctoring.ConfigResponse{
		MonitorSettings: settings,
		ScreenshotsDir:  s.screenshotsDir,
	}
}

// Health is degraded when the detector is not ready or a configured incident
// publisher does not answer a ping.
func (s *proctorService) Health(ctx context.Context) proctoring.HealthResponse {
	resp := proctoring.HealthResponse{
		Status:    "healthy",
		Publisher: s.publisherStatus(ctx),
		Version:   proctoring.Version,
	}

	if s.detector != nil {
		resp.Detector = s.detector.Name()
		resp.DetectorReady = s.detector.Ready()
	}
	if !resp.DetectorReady || resp.Publisher == proctoring.PublisherUnreachable {
		resp.Status = "degraded"
	}

	return resp
}

func (s *proctorService) publisherStatus(ctx context.Context) string {
	if s.redis == nil {
		return proctoring.PublisherDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.redis.Ping(ctx); err != nil {
		s.log.WithField("error", err.Error()).Warn("Incident publisher unreachable")
		return proctoring.PublisherUnreachable
	}
	return proctoring.PublisherConnected
}
