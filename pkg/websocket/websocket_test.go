package websocketPkg

import (
	"ProctorWatch/internal/entity"
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// fakeFaceService answers like the face AI service: one face per frame and two
// eyes per face crop. It echoes the crop size back through the eye width.
func fakeFaceService(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var req detectionRequest
			if err := jsoniter.Unmarshal(message, &req); err != nil {
				return
			}

			resp := detectionResponse{}
			switch {
			case fail:
				resp.Error = "model not loaded"
			case req.Type == requestFaces:
				resp.Faces = []entity.FaceRegion{{X: 10, Y: 20, Width: 40, Height: 30}}
			case req.Type == requestEyes:
				raw, _ := base64.StdEncoding.DecodeString(req.Image)
				img, err := jpeg.Decode(bytes.NewReader(raw))
				if err != nil {
					resp.Error = err.Error()
					break
				}
				resp.Eyes = []entity.EyeRegion{
					{X: 1, Y: 2, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()},
					{X: 5, Y: 2, Width: 3, Height: 3},
				}
			}

			body, _ := jsoniter.Marshal(resp)
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		}
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *webSocketClient {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := &webSocketClient{
		url:          url,
		log:          logger,
		pingInterval: time.Minute,
		readTimeout:  2 * time.Second,
		writeTimeout: 2 * time.Second,
	}
	t.Cleanup(client.CloseConnections)
	return client
}

func TestDetectFacesAndEyes(t *testing.T) {
	srv := fakeFaceService(t, false)
	defer srv.Close()
	client := newTestClient(t, srv)

	frame := image.NewRGBA(image.Rect(0, 0, 160, 120))

	faces, err := client.DetectFaces(frame)
	if err != nil {
		t.Fatalf("detect faces: %v", err)
	}
	if len(faces) != 1 || faces[0].Width != 40 {
		t.Fatalf("unexpected faces %+v", faces)
	}
	if !client.Ready() {
		t.Fatal("client should be connected after a successful call")
	}

	eyes, err := client.DetectEyes(frame, faces[0])
	if err != nil {
		t.Fatalf("detect eyes: %v", err)
	}
	if len(eyes) != 2 {
		t.Fatalf("expected two eyes, got %+v", eyes)
	}
	if eyes[0].Width != 40 || eyes[0].Height != 30 {
		t.Fatalf("eye request should carry the face crop, got %dx%d", eyes[0].Width, eyes[0].Height)
	}
}

func TestDetectFacesServiceError(t *testing.T) {
	srv := fakeFaceService(t, true)
	defer srv.Close()
	client := newTestClient(t, srv)

	if _, err := client.DetectFaces(image.NewRGBA(image.Rect(0, 0, 8, 8))); err == nil ||
		!strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestDetectFacesWithoutURL(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := &webSocketClient{log: logger, readTimeout: time.Second, writeTimeout: time.Second}

	if _, err := client.DetectFaces(image.NewRGBA(image.Rect(0, 0, 8, 8))); err == nil {
		t.Fatal("expected an error without a service url")
	}
	if client.Ready() {
		t.Fatal("client must not report ready")
	}
}
