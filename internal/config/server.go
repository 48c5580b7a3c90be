package config

import (
	proctorHandler "ProctorWatch/internal/api/proctoring/handler"
	proctorService "ProctorWatch/internal/api/proctoring/service"
	"ProctorWatch/internal/middleware"
	"ProctorWatch/internal/monitor"
	"ProctorWatch/pkg/capture"
	"ProctorWatch/pkg/metrics"
	"ProctorWatch/pkg/redis"
	"ProctorWatch/pkg/s3"
	"ProctorWatch/pkg/utils"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	cfg         Config
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	detector    proctorService.IDetector
	capturer    *capture.ScreenshotWriter
	monitor     *monitor.Monitor
	redisServer redis.IRedis
	s3Client    s3.ItfS3
	metrics     *metrics.Metrics
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithConfig(cfg Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDetector(detector proctorService.IDetector) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)
		return nil
	}
}

// WithS3Client enables the screenshot mirror. A missing bucket leaves it off.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("S3 mirror disabled: %v", err)
			}
			return nil
		}
		s.s3Client = client
		return nil
	}
}

func WithCapture() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before capture")
		}

		writer, err := capture.New(s.cfg.ScreenshotsDir, s.s3Client, s.log)
		if err != nil {
			return fmt.Errorf("failed to create screenshot writer: %w", err)
		}
		s.capturer = writer
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.NewWithMaxPixels(s.cfg.MaxFramePixels)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	var capturer monitor.Capturer
	if s.capturer != nil {
		capturer = s.capturer
	}

	s.monitor = monitor.New(s.detector, capturer, s.log, monitor.SettingsUpdate{
		EscalationThresholdSeconds: s.cfg.CheatThreshold,
	})

	// Proctoring
	proctorServices := proctorService.NewProctorService(s.log, s.monitor, s.detector, s.redisServer, s.metrics, s.cfg.ScreenshotsDir)
	proctorHandlers := proctorHandler.New(s.log, s.validator, s.middleware, proctorServices, s.utils, s.metrics)

	s.handlers = append(s.handlers, proctorHandlers)
}

func (s *Server) Run() error {
	s.mount()

	port := s.cfg.Port
	if port == "" {
		port = "5000"
	}

	s.log.WithFields(logrus.Fields{
		"port":     port,
		"detector": s.detector.Name(),
	}).Info("Starting proctoring server")

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	s.setupHealthCheck()
	if s.metrics != nil {
		s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Shutdown(timeout time.Duration) error {
	if err := s.engine.ShutdownWithTimeout(timeout); err != nil {
		return err
	}

	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Warnf("Error closing redis client: %v", err)
		}
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
