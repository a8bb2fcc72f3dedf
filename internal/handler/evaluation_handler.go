package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// EvaluationHandler exposes the grading endpoint.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the grading handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires the grading route.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/evaluate", h.evaluate)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.GradingRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Evaluate(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyEvaluated):
			return utils.SendError(c, fiber.StatusConflict, "student has already been evaluated")
		case errors.Is(err, service.ErrUpstreamGrading):
			requestLogger(h.logger, c).Warn().Err(err).Msg("grading provider failed")
			return utils.SendError(c, fiber.StatusBadGateway, "grading provider failed, please retry")
		case errors.Is(err, service.ErrGraderUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "grading is not configured")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("evaluation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "evaluation failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation completed", result)
}
