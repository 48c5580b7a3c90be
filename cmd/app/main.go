package main

import (
	proctorService "ProctorWatch/internal/api/proctoring/service"
	"ProctorWatch/internal/config"
	"ProctorWatch/pkg/cascade"
	"ProctorWatch/pkg/log"
	"ProctorWatch/pkg/metrics"
	"ProctorWatch/pkg/redis"
	websocketPkg "ProctorWatch/pkg/websocket"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Fatalf("Error loading .env file: %v", err)
	}

	logger := log.NewLogger()
	cfg := config.Load()

	detector, closeDetector, err := newDetector(cfg, logger)
	if err != nil {
		logger.Fatalf("Error creating %s detector: %v", cfg.DetectorBackend, err)
	}
	defer closeDetector()

	redisServer, err := redis.New()
	if err != nil {
		logger.Warnf("Incident publishing disabled: %v", err)
	}

	server, err := config.NewServer(
		config.WithFiber(config.NewFiber(logger)),
		config.WithConfig(cfg),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithDetector(detector),
		config.WithRedisServer(redisServer),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithCapture(),
		config.WithMetrics(metrics.New()),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}

func newDetector(cfg config.Config, logger *logrus.Logger) (proctorService.IDetector, func(), error) {
	switch cfg.DetectorBackend {
	case config.BackendCascade:
		detector, err := cascade.New(cfg.FaceCascadePath, cfg.EyeCascadePath)
		if err != nil {
			return nil, nil, err
		}
		if !detector.Ready() {
			logger.Warn("Cascade detector unavailable in this build, frames will report Error")
		}
		return detector, detector.Close, nil
	case config.BackendRemote:
		client := websocketPkg.NewFaceAIClient(logger)
		return client, client.CloseConnections, nil
	default:
		return nil, nil, errors.New("unknown detector backend " + cfg.DetectorBackend)
	}
}
