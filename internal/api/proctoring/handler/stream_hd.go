package proctorHandler

import (
	"ProctorWatch/internal/api/proctoring"
	"image"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"
)

const (
	streamReadTimeout     = 60 * time.Second
	streamWriteTimeout    = 10 * time.Second
	streamFramesPerSecond = 15
)

// handleStream analyzes every frame received on the socket. Binary messages
// are encoded images; text messages are AnalyzeRequest JSON. Frames beyond the
// per-connection rate are answered with an error and not analyzed.
func (h *ProctorHandler) handleStream(c *websocket.Conn) {
	h.log.Info("Frame stream client connected")
	defer h.log.Info("Frame stream client disconnected")

	if h.metrics != nil {
		h.metrics.ActiveStreams.Add(1)
		defer h.metrics.ActiveStreams.Add(-1)
	}

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	limiter := rate.NewLimiter(h.streamRate, h.streamBurst)

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Frame stream error: %v", err)
			}
			break
		}

		if !limiter.Allow() {
			if !h.writeStream(c, map[string]any{"success": false, "error": proctoring.ErrFrameRateExceeded.Error()}) {
				break
			}
			continue
		}

		frame, err := h.decodeStreamFrame(messageType, message)
		if err != nil {
			if h.metrics != nil {
				h.metrics.DecodeFailures.Add(1)
			}
			if !h.writeStream(c, map[string]any{"success": false, "error": err.Error()}) {
				break
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), streamWriteTimeout)
		result, err := h.proctorService.Analyze(ctx, frame, h.now())
		cancel()
		if err != nil {
			h.log.Errorf("Error analyzing streamed frame: %v", err)
			if !h.writeStream(c, map[string]any{"success": false, "error": err.Error()}) {
				break
			}
			continue
		}

		if !h.writeStream(c, result) {
			break
		}
	}
}

func (h *ProctorHandler) decodeStreamFrame(messageType int, message []byte) (image.Image, error) {
	switch messageType {
	case websocket.BinaryMessage:
		frame, err := h.utils.DecodeImage(message)
		if err != nil {
			return nil, decodeError(err)
		}
		return frame, nil
	case websocket.TextMessage:
		var req proctoring.AnalyzeRequest
		if err := jsoniter.Unmarshal(message, &req); err != nil {
			return nil, proctoring.ErrBadRequest
		}
		if err := h.validator.Struct(req); err != nil {
			return nil, proctoring.ErrNoImage
		}
		frame, err := h.utils.DecodeBase64Image(req.Image)
		if err != nil {
			return nil, decodeError(err)
		}
		return frame, nil
	default:
		return nil, proctoring.ErrBadRequest
	}
}

func (h *ProctorHandler) writeStream(c *websocket.Conn, v any) bool {
	if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		h.log.Errorf("Error setting write deadline: %v", err)
		return false
	}

	if err := c.WriteJSON(v); err != nil {
		h.log.Errorf("Error writing JSON response: %v", err)
		return false
	}

	if err := c.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Errorf("Error resetting write deadline: %v", err)
		return false
	}
	return true
}
