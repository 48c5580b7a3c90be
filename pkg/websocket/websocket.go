package websocketPkg

import (
	"ProctorWatch/internal/entity"
	"ProctorWatch/pkg/utils"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	requestFaces = "faces"
	requestEyes  = "eyes"
)

var ErrNotConnected = errors.New("not connected to face AI service")

// IWebsocket is a detection provider backed by a remote face AI service.
type IWebsocket interface {
	DetectFaces(frame image.Image) ([]entity.FaceRegion, error)
	DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error)
	Name() string
	Ready() bool
	Reconnect() error
	CloseConnections()
}

type detectionRequest struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

type detectionResponse struct {
	Faces []entity.FaceRegion `json:"faces"`
	Eyes  []entity.EyeRegion  `json:"eyes"`
	Error string              `json:"error,omitempty"`
}

type webSocketClient struct {
	url          string
	log          *logrus.Logger
	conn         *websocket.Conn
	mu           sync.Mutex
	roundTrip    sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewFaceAIClient(logger *logrus.Logger) IWebsocket {
	return newClient(os.Getenv("FACE_AI_WS_URL"), logger)
}

func newClient(url string, logger *logrus.Logger) *webSocketClient {
	client := &webSocketClient{
		url:          url,
		log:          logger,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go client.connectInBackground()

	return client
}

func (c *webSocketClient) Name() string {
	return "remote"
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.Warnf("Initial connection to face AI service failed: %v. Will retry on demand.", err)
		return
	}
	c.log.Info("Successfully connected to face AI service")
}

func (c *webSocketClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.url == "" {
		return fmt.Errorf("FACE_AI_WS_URL not configured")
	}

	c.log.Debugf("Connecting to face AI service at %s", c.url)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn

	go c.keepAlive(conn)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping failed for face AI service, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *webSocketClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn, nil
	}

	if err := c.Reconnect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

func (c *webSocketClient) dropConnection(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *webSocketClient) DetectFaces(frame image.Image) ([]entity.FaceRegion, error) {
	resp, err := c.send(requestFaces, frame)
	if err != nil {
		return nil, err
	}
	return resp.Faces, nil
}

func (c *webSocketClient) DetectEyes(frame image.Image, face entity.FaceRegion) ([]entity.EyeRegion, error) {
	roi := utils.Crop(frame, image.Rect(face.X, face.Y, face.X+face.Width, face.Y+face.Height))
	resp, err := c.send(requestEyes, roi)
	if err != nil {
		return nil, err
	}
	return resp.Eyes, nil
}

// send performs one request/response exchange. The service answers in order,
// so exchanges on the shared connection are serialized.
func (c *webSocketClient) send(kind string, img image.Image) (*detectionResponse, error) {
	data, err := utils.EncodeJPEG(img, 85)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", kind, err)
	}

	payload, err := jsoniter.Marshal(detectionRequest{
		Type:  kind,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}

	c.roundTrip.Lock()
	defer c.roundTrip.Unlock()

	conn, err := c.getConnection()
	if err != nil {
		return nil, err
	}

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error sending %s frame: %w", kind, err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropConnection(conn)
		return nil, fmt.Errorf("error reading %s response: %w", kind, err)
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result detectionResponse
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling %s response: %w", kind, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("face AI service: %s", result.Error)
	}

	c.log.WithFields(logrus.Fields{
		"type":  kind,
		"faces": len(result.Faces),
		"eyes":  len(result.Eyes),
	}).Debug("Received response from face AI service")

	return &result, nil
}
