package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// ScreenshotHandler exposes screenshot upload and state endpoints.
type ScreenshotHandler struct {
	service service.ScreenshotService
	logger  zerolog.Logger
}

// NewScreenshotHandler constructs the screenshot handler.
func NewScreenshotHandler(service service.ScreenshotService, logger zerolog.Logger) *ScreenshotHandler {
	return &ScreenshotHandler{
		service: service,
		logger:  logger.With().Str("component", "screenshot_handler").Logger(),
	}
}

// Register wires screenshot routes.
func (h *ScreenshotHandler) Register(router fiber.Router) {
	router.Post("/:enrollmentNumber/:operation", h.upload)
	router.Post("/:enrollmentNumber", h.uploadBulk)
	router.Get("/:enrollmentNumber", h.state)
}

func (h *ScreenshotHandler) upload(c *fiber.Ctx) error {
	enrollmentNumber := c.Params("enrollmentNumber")
	operation := c.Params("operation")

	file, err := c.FormFile("screenshot")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "screenshot file is required")
	}

	result, err := h.service.Upload(c.Context(), enrollmentNumber, operation, file)
	if err != nil {
		return h.mapUploadError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "screenshot uploaded", result)
}

// uploadBulk accepts one multipart form with a named file per operation.
func (h *ScreenshotHandler) uploadBulk(c *fiber.Ctx) error {
	enrollmentNumber := c.Params("enrollmentNumber")

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	files := make(map[string]*multipart.FileHeader)
	for _, operation := range models.ScreenshotOperations() {
		if headers, ok := form.File[operation]; ok && len(headers) > 0 {
			files[operation] = headers[0]
		}
	}
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one screenshot field is required")
	}

	result, err := h.service.UploadBulk(c.Context(), enrollmentNumber, files)
	if err != nil {
		return h.mapUploadError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "screenshots uploaded", result)
}

func (h *ScreenshotHandler) state(c *fiber.Ctx) error {
	enrollmentNumber := c.Params("enrollmentNumber")

	result, err := h.service.State(c.Context(), enrollmentNumber)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load screenshot state")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load screenshot state")
	}

	return utils.SendSuccess(c, "screenshot state retrieved", result)
}

func (h *ScreenshotHandler) mapUploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidOperation):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown screenshot operation")
	case errors.Is(err, service.ErrScreenshotTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "screenshot exceeds the 5MB limit")
	case errors.Is(err, service.ErrScreenshotTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, "screenshot must be an image")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "file storage unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("screenshot upload failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "screenshot upload failed")
	}
}
