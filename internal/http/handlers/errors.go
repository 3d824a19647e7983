package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/middleware"
	"github.com/campus-assoc/backend/internal/services"
)

// MaxUploadBytes bounds every binary upload.
const MaxUploadBytes = 10 << 20

// respondError maps service errors to HTTP statuses. Unknown errors are logged
// and reported as internal.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, msg = fiber.StatusNotFound, "not found"
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrFiscalYearClosed):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		status, msg = fiber.StatusForbidden, err.Error()
	default:
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

func paging(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 50), c.QueryInt("offset", 0)
}

// readUpload returns the bytes of a multipart file part, or nil when the part
// is absent.
func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if fh.Size > MaxUploadBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxUploadBytes))
}
