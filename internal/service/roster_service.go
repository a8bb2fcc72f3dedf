package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrSeedTokenInvalid indicates the roster seed token did not match.
var ErrSeedTokenInvalid = errors.New("invalid seed token")

// ErrSeedingDisabled indicates no seed token is configured.
var ErrSeedingDisabled = errors.New("roster seeding disabled")

// RosterService loads question assignments for a cohort of students.
type RosterService interface {
	Seed(ctx context.Context, payload dto.RosterSeedRequest) (dto.RosterSeedResponse, error)
}

type rosterService struct {
	students  repository.StudentRepository
	token     string
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRosterService constructs the roster service. An empty token disables
// seeding entirely.
func NewRosterService(studentRepo repository.StudentRepository, token string, validate *validator.Validate, logger zerolog.Logger) RosterService {
	return &rosterService{
		students:  studentRepo,
		token:     token,
		validator: validate,
		logger:    logger.With().Str("component", "roster_service").Logger(),
	}
}

// Seed upserts roster entries, refreshing the assigned question for
// enrollment numbers already present. The token check is constant time.
func (s *rosterService) Seed(ctx context.Context, payload dto.RosterSeedRequest) (dto.RosterSeedResponse, error) {
	if s.token == "" {
		return dto.RosterSeedResponse{}, ErrSeedingDisabled
	}
	if subtle.ConstantTimeCompare([]byte(payload.Token), []byte(s.token)) != 1 {
		return dto.RosterSeedResponse{}, ErrSeedTokenInvalid
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.RosterSeedResponse{}, err
	}

	students := make([]models.Student, 0, len(payload.Students))
	for _, entry := range payload.Students {
		students = append(students, models.Student{
			EnrollmentNumber: entry.EnrollmentNumber,
			QuestionModel:    entry.Question.ModelName,
			QuestionFields:   datatypes.NewJSONSlice(entry.Question.Fields),
		})
	}

	affected, err := s.students.UpsertBatch(ctx, students)
	if err != nil {
		return dto.RosterSeedResponse{}, err
	}

	s.logger.Info().Int64("affected", affected).Int("entries", len(students)).Msg("roster seeded")
	return dto.RosterSeedResponse{Affected: affected}, nil
}
