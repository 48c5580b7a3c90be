package proctorHandler

import (
	"ProctorWatch/internal/api/proctoring"
	contextPkg "ProctorWatch/pkg/context"
	"ProctorWatch/pkg/handlerUtil"
	"ProctorWatch/pkg/log"
	"ProctorWatch/pkg/response"
	"ProctorWatch/pkg/utils"
	"errors"
	"image"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *ProctorHandler) Analyze(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := contextPkg.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	frame, err := h.readFrame(ctx, requestID)
	if err != nil {
		if h.metrics != nil {
			h.metrics.DecodeFailures.Add(1)
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
	}

	result, err := h.proctorService.Analyze(c, frame, h.now())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errHandler.HandleRequestTimeout(ctx)
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze_frame")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"status":     result.Result.Status.String(),
		"confidence": result.Result.Confidence,
		"duration":   result.Result.Duration,
	}).Debug("Frame analyzed")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}

// readFrame takes the frame from a multipart "image" upload, falling back to
// a JSON body carrying base64 or a data URL.
func (h *ProctorHandler) readFrame(ctx *fiber.Ctx, requestID string) (image.Image, error) {
	file, err := ctx.FormFile("image")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		frame, err := h.utils.ReadImageFile(file)
		if err != nil {
			return nil, decodeError(err)
		}
		return frame, nil
	}

	var req proctoring.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, response.Wrap(proctoring.ErrBadRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, proctoring.ErrNoImage
	}

	frame, err := h.utils.DecodeBase64Image(req.Image)
	if err != nil {
		return nil, decodeError(err)
	}
	return frame, nil
}

func decodeError(err error) error {
	if errors.Is(err, utils.ErrNoImage) {
		return proctoring.ErrNoImage
	}
	return response.Wrap(proctoring.ErrDecodeImage, err)
}

func (h *ProctorHandler) Stats(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.proctorService.Stats(contextPkg.FromFiberCtx(ctx)))
}

func (h *ProctorHandler) Reset(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	h.proctorService.Reset(contextPkg.FromFiberCtx(ctx))

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, proctoring.ResetResponse{
		Success: true,
		Message: "Session reset successfully",
	})
}

func (h *ProctorHandler) Health(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.proctorService.Health(contextPkg.FromFiberCtx(ctx)))
}

func (h *ProctorHandler) GetConfig(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.proctorService.Config(contextPkg.FromFiberCtx(ctx)))
}

func (h *ProctorHandler) UpdateConfig(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var req proctoring.ConfigRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, response.Wrap(proctoring.ErrBadRequest, err), ctx.Path(), "parse_request_body")
	}

	settings := h.proctorService.UpdateConfig(contextPkg.FromFiberCtx(ctx), req)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, settings)
}
