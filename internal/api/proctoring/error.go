package proctoring

import (
	"ProctorWatch/pkg/response"
	"net/http"
)

var (
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
	ErrNoImage             = response.NewError(http.StatusBadRequest, "no image data provided")
	ErrDecodeImage         = response.NewError(http.StatusBadRequest, "could not decode image")
	ErrFrameRateExceeded   = response.NewError(http.StatusTooManyRequests, "frame rate exceeded")
)
