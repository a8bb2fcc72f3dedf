package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// StudentService exposes read and profile-update operations on the roster.
type StudentService interface {
	List(ctx context.Context) ([]dto.StudentResponse, error)
	Detail(ctx context.Context, enrollmentNumber string) (dto.StudentDetailResponse, error)
	UpdateProfile(ctx context.Context, enrollmentNumber string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
}

type studentService struct {
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, evaluationRepo repository.EvaluationRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:    studentRepo,
		submissions: submissionRepo,
		evaluations: evaluationRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

// Detail returns the student along with their submissions, evaluations and
// activity stats.
func (s *studentService) Detail(ctx context.Context, enrollmentNumber string) (dto.StudentDetailResponse, error) {
	student, err := s.students.GetByEnrollment(ctx, enrollmentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDetailResponse{}, ErrStudentNotFound
		}
		return dto.StudentDetailResponse{}, err
	}

	submissions, err := s.submissions.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.StudentDetailResponse{}, err
	}

	evaluations, err := s.evaluations.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.StudentDetailResponse{}, err
	}

	return dto.StudentDetailResponse{
		Student:     dto.NewStudentResponse(student),
		Submissions: dto.NewSubmissionResponseSlice(submissions),
		Evaluations: dto.NewEvaluationResponseSlice(evaluations),
		Stats:       studentStats(submissions, evaluations),
	}, nil
}

// UpdateProfile changes the mutable profile fields only. The enrollment
// number and assigned question are not editable through this path.
func (s *studentService) UpdateProfile(ctx context.Context, enrollmentNumber string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.GetByEnrollment(ctx, enrollmentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	if payload.Name != "" {
		student.Name = payload.Name
	}
	if payload.Email != "" {
		student.Email = payload.Email
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Str("enrollment_number", enrollmentNumber).Msg("student profile updated")
	return dto.NewStudentResponse(student), nil
}

func studentStats(submissions []models.Submission, evaluations []models.Evaluation) dto.StudentStats {
	stats := dto.StudentStats{
		TotalSubmissions: len(submissions),
		TotalEvaluations: len(evaluations),
	}
	if len(evaluations) == 0 {
		return stats
	}

	sum := 0
	best := evaluations[0].OverallScore
	for _, evaluation := range evaluations {
		sum += evaluation.OverallScore
		if evaluation.OverallScore > best {
			best = evaluation.OverallScore
		}
	}
	stats.AverageScore = float64(sum) / float64(len(evaluations))
	stats.BestScore = best
	return stats
}
