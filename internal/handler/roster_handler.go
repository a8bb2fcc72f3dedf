package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// RosterHandler exposes the token-guarded roster seeding endpoint.
type RosterHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewRosterHandler constructs the roster handler.
func NewRosterHandler(service service.RosterService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		logger:  logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register wires the seeding route.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Post("/seed/students", h.seed)
}

func (h *RosterHandler) seed(c *fiber.Ctx) error {
	var payload dto.RosterSeedRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Seed(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSeedTokenInvalid):
			return utils.SendError(c, fiber.StatusForbidden, "invalid seed token")
		case errors.Is(err, service.ErrSeedingDisabled):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "seeding is disabled")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("roster seeding failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "roster seeding failed")
		}
	}

	return utils.SendSuccess(c, "roster seeded", result)
}
