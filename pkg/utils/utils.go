package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNoImage       = errors.New("no image data provided")
	ErrFileTooLarge  = errors.New("file size exceeds limit")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrInvalidBase64 = errors.New("image is not valid base64")
	ErrFrameTooLarge = errors.New("image dimensions exceed limit")
)

// DefaultMaxPixels bounds the decoded frame size at 4096x4096.
const DefaultMaxPixels int64 = 4096 * 4096

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadImageFile(file *multipart.FileHeader) (image.Image, error)
	DecodeBase64Image(data string) (image.Image, error)
	DecodeImage(data []byte) (image.Image, error)
}

type utils struct {
	maxFileSize int64
	maxPixels   int64
}

func New() IUtils {
	return NewWithMaxPixels(DefaultMaxPixels)
}

// NewWithMaxPixels caps width*height of any decoded frame. Non-positive
// values fall back to DefaultMaxPixels.
func NewWithMaxPixels(maxPixels int64) IUtils {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &utils{
		maxFileSize: 10 * 1024 * 1024,
		maxPixels:   maxPixels,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoImage
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ReadImageFile(file *multipart.FileHeader) (image.Image, error) {
	if err := u.ValidateImageFile(file); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return u.DecodeImage(data)
}

// DecodeBase64Image accepts raw base64 or a data URL such as
// "data:image/jpeg;base64,...".
func (u *utils) DecodeBase64Image(data string) (image.Image, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:image") {
		comma := strings.IndexByte(data, ',')
		if comma < 0 {
			return nil, ErrInvalidBase64
		}
		data = data[comma+1:]
	}
	if data == "" {
		return nil, ErrNoImage
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	return u.DecodeImage(raw)
}

// DecodeImage decodes jpeg, png, bmp or webp and normalizes the result to an
// RGBA frame whose bounds start at the origin. The header is checked against
// the pixel budget before any pixel buffer is allocated.
func (u *utils) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > u.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return ToRGBA(img), nil
}

func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// Crop copies rect out of img into a new frame.
func Crop(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
