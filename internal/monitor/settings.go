package monitor

import (
	"ProctorWatch/internal/entity"
	"math"
	"time"
)

const (
	DefaultEscalationThreshold = 3.0
	DefaultEyeClosedRatio      = 0.7
	DefaultNoEyesTimeout       = 2.0

	minEscalationThreshold = 1.0
	maxEscalationThreshold = 10.0
	minEyeClosedRatio      = 0.1
	maxEyeClosedRatio      = 1.0
	minNoEyesTimeout       = 1.0
	maxNoEyesTimeout       = 5.0
)

// SettingsUpdate is a partial update; nil fields keep their current value.
type SettingsUpdate struct {
	EscalationThresholdSeconds *float64
	EyeClosedRatioThreshold    *float64
	NoEyesTimeoutSeconds       *float64
}

func DefaultSettings() entity.MonitorSettings {
	return entity.MonitorSettings{
		EscalationThresholdSeconds: DefaultEscalationThreshold,
		EyeClosedRatioThreshold:    DefaultEyeClosedRatio,
		NoEyesTimeoutSeconds:       DefaultNoEyesTimeout,
	}
}

func applySettings(current entity.MonitorSettings, update SettingsUpdate) entity.MonitorSettings {
	next := current
	if update.EscalationThresholdSeconds != nil {
		next.EscalationThresholdSeconds = clamp(*update.EscalationThresholdSeconds,
			minEscalationThreshold, maxEscalationThreshold, current.EscalationThresholdSeconds)
	}
	if update.EyeClosedRatioThreshold != nil {
		next.EyeClosedRatioThreshold = clamp(*update.EyeClosedRatioThreshold,
			minEyeClosedRatio, maxEyeClosedRatio, current.EyeClosedRatioThreshold)
	}
	if update.NoEyesTimeoutSeconds != nil {
		next.NoEyesTimeoutSeconds = clamp(*update.NoEyesTimeoutSeconds,
			minNoEyesTimeout, maxNoEyesTimeout, current.NoEyesTimeoutSeconds)
	}
	return next
}

// clamp keeps fallback for NaN, which has no place in the range.
func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
