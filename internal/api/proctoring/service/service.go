package proctorService

import (
	"ProctorWatch/internal/api/proctoring"
	"ProctorWatch/internal/monitor"
	"ProctorWatch/pkg/metrics"
	"ProctorWatch/pkg/redis"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IProctorService interface {
	Analyze(ctx context.Context, frame image.Image, now time.Time) (*proctoring.AnalyzeResponse, error)
	Stats(ctx context.Context) proctoring.StatsResponse
	Reset(ctx context.Context)
	Config(ctx context.Context) proctoring.ConfigResponse
	UpdateConfig(ctx context.Context, req proctoring.ConfigRequest) proctoring.ConfigResponse
	Health(ctx context.Context) proctoring.HealthResponse
}

// IDetector is a face/eye provider that can report its backend and readiness.
type IDetector interface {
	monitor.Provider
	Name() string
	Ready() bool
}

type proctorService struct {
	log            *logrus.Logger
	monitor        *monitor.Monitor
	detector       IDetector
	redis          redis.IRedis
	metrics        *metrics.Metrics
	screenshotsDir string
}

func NewProctorService(
	log *logrus.Logger,
	monitor *monitor.Monitor,
	detector IDetector,
	redis redis.IRedis,
	metrics *metrics.Metrics,
	screenshotsDir string,
) IProctorService {
	return &proctorService{
		log:            log,
		monitor:        monitor,
		detector:       detector,
		redis:          redis,
		metrics:        metrics,
		screenshotsDir: screenshotsDir,
	}
}
