package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port            string
	Env             string
	ScreenshotsDir  string
	CheatThreshold  *float64
	DetectorBackend string
	FaceCascadePath string
	EyeCascadePath  string
	CORSOrigins     string
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxFramePixels  int64
}

const (
	BackendRemote  = "remote"
	BackendCascade = "cascade"
)

func Load() Config {
	cfg := Config{
		Port:            getEnv("APP_PORT", "5000"),
		Env:             getEnv("APP_ENV", "development"),
		ScreenshotsDir:  getEnv("SCREENSHOTS_DIR", "screenshots"),
		DetectorBackend: strings.ToLower(getEnv("DETECTOR_BACKEND", BackendRemote)),
		FaceCascadePath: getEnv("FACE_CASCADE_PATH", "data/haarcascade_frontalface_default.xml"),
		EyeCascadePath:  getEnv("EYE_CASCADE_PATH", "data/haarcascade_eye.xml"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:  int(getEnvFloat("RATE_LIMIT_BURST", 100)),
		MaxFramePixels:  int64(getEnvFloat("MAX_FRAME_PIXELS", 4096*4096)),
	}

	if raw := os.Getenv("CHEAT_THRESHOLD"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.CheatThreshold = &v
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
