package proctorHandler

import (
	proctorService "ProctorWatch/internal/api/proctoring/service"
	"ProctorWatch/internal/middleware"
	"ProctorWatch/pkg/metrics"
	"ProctorWatch/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ProctorHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	proctorService proctorService.IProctorService
	utils          utils.IUtils
	metrics        *metrics.Metrics
	now            func() time.Time
	streamRate     rate.Limit
	streamBurst    int
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps proctorService.IProctorService,
	utils utils.IUtils,
	metrics *metrics.Metrics,
) *ProctorHandler {
	return &ProctorHandler{
		proctorService: ps,
		log:            log,
		validator:      validator,
		middleware:     middleware,
		utils:          utils,
		metrics:        metrics,
		now:            time.Now,
		streamRate:     streamFramesPerSecond,
		streamBurst:    streamFramesPerSecond,
	}
}

func (h *ProctorHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/analyze", h.middleware.NewRateLimiter, h.Analyze)
	srv.Get("/stats", h.Stats)
	srv.Post("/reset", h.Reset)
	srv.Get("/health", h.Health)
	srv.Get("/config", h.GetConfig)
	srv.Post("/config", h.UpdateConfig)

	srv.Use("/ws", wsMiddleware)
	srv.Get("/ws", h.middleware.NewRateLimiter, websocket.New(h.handleStream))
}
