package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/repository"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// HistoryHandler exposes stored evaluation history and reporting.
type HistoryHandler struct {
	service service.HistoryService
	logger  zerolog.Logger
}

// NewHistoryHandler constructs the history handler.
func NewHistoryHandler(service service.HistoryService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger.With().Str("component", "history_handler").Logger(),
	}
}

// Register wires history routes. Static segments are registered before the
// id wildcard so /stats does not shadow.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Get("/student/:enrollmentNumber", h.studentHistory)
	router.Get("/:id", h.get)
	router.Get("", h.list)
}

func (h *HistoryHandler) list(c *fiber.Ctx) error {
	filter := repository.EvaluationFilter{
		EnrollmentNumber: c.Query("enrollmentNumber"),
	}

	var err error
	if filter.Page, err = parseQueryInt(c, "page"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "page must be a number")
	}
	if filter.Limit, err = parseQueryInt(c, "limit"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "limit must be a number")
	}
	if raw := c.Query("minScore"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "minScore must be a number")
		}
		filter.MinScore = &value
	}
	if raw := c.Query("maxScore"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "maxScore must be a number")
		}
		filter.MaxScore = &value
	}

	result, err := h.service.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list evaluations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list evaluations")
	}

	return utils.SendSuccess(c, "evaluations retrieved", result)
}

func (h *HistoryHandler) get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "evaluation id must be a number")
	}

	result, err := h.service.Get(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrEvaluationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load evaluation")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load evaluation")
	}

	return utils.SendSuccess(c, "evaluation retrieved", result)
}

func (h *HistoryHandler) studentHistory(c *fiber.Ctx) error {
	enrollmentNumber := c.Params("enrollmentNumber")

	result, err := h.service.StudentHistory(c.Context(), enrollmentNumber)
	if err != nil {
		if errors.Is(err, service.ErrNoEvaluations) {
			return utils.SendError(c, fiber.StatusNotFound, "no evaluations found for student")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load student history")
	}

	return utils.SendSuccess(c, "student history retrieved", result)
}

func (h *HistoryHandler) stats(c *fiber.Ctx) error {
	result, err := h.service.Stats(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}

	return utils.SendSuccess(c, "stats retrieved", result)
}
