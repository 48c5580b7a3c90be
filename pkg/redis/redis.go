package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultIncidentChannel = "proctor:incidents"

var ErrRedisNotConfigured = errors.New("REDIS_ADDRESS is not set")

// IRedis publishes incident events for dashboards that subscribe to the channel.
type IRedis interface {
	PublishIncident(ctx context.Context, payload any) error
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client  *redis.Client
	channel string
}

func New() (IRedis, error) {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		return nil, ErrRedisNotConfigured
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	channel := os.Getenv("REDIS_INCIDENT_CHANNEL")
	if channel == "" {
		channel = defaultIncidentChannel
	}

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, channel: channel}, nil
}

func (r *redisClient) PublishIncident(ctx context.Context, payload any) error {
	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal incident: %w", err)
	}

	receivers, err := r.client.Publish(ctx, r.channel, body).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error publishing incident on %s: %v", r.channel, err))
		return err
	}

	logrus.Debug(fmt.Sprintf("Published incident on %s to %d subscribers", r.channel, receivers))
	return nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
