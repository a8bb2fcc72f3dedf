package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/observability"
	"github.com/gradeflow/gradeflow-api/internal/repository"
	"github.com/gradeflow/gradeflow-api/pkg/ai"
)

// ErrAlreadyEvaluated indicates the student has already used their single
// grading attempt.
var ErrAlreadyEvaluated = errors.New("student already evaluated")

// ErrUpstreamGrading indicates the AI provider failed or returned content
// that could not be normalized. Nothing is persisted beyond the submission,
// so the caller may safely resubmit.
var ErrUpstreamGrading = errors.New("upstream grading failed")

// ErrGraderUnavailable indicates no AI completer is configured.
var ErrGraderUnavailable = errors.New("grader unavailable")

const evaluationEventSubject = "gradeflow.evaluations.completed"

// EvaluationService orchestrates a grading attempt end to end.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.GradingRequest) (dto.GradingResponse, error)
}

type evaluationService struct {
	students    repository.StudentRepository
	evaluations repository.EvaluationRepository
	reconciler  SubmissionReconciler
	completer   ai.Completer
	events      *nats.Conn
	validator   *validator.Validate
	logger      zerolog.Logger
	locks       sync.Map
	now         func() time.Time
}

// NewEvaluationService constructs the grading orchestrator. The NATS
// connection is optional; events are dropped when it is nil.
func NewEvaluationService(studentRepo repository.StudentRepository, evaluationRepo repository.EvaluationRepository, reconciler SubmissionReconciler, completer ai.Completer, events *nats.Conn, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		students:    studentRepo,
		evaluations: evaluationRepo,
		reconciler:  reconciler,
		completer:   completer,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

// Evaluate runs the grading sequence: resolve the student, enforce the
// single-attempt guard, persist a fresh submission, grade through the AI
// provider, persist the evaluation, and flip the submission's evaluated
// flag. A failure after the submission write leaves a dangling submission,
// which is safe: the guard keys off evaluation existence only, so exactly
// one retry can still succeed.
func (s *evaluationService) Evaluate(ctx context.Context, payload dto.GradingRequest) (dto.GradingResponse, error) {
	tracer := otel.Tracer("github.com/gradeflow/gradeflow-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.grade")
	span.SetAttributes(attribute.String("evaluation.enrollment_number", payload.EnrollmentNumber))
	defer span.End()

	start := s.now()
	defer func() {
		observability.EvaluationLatency().Observe(time.Since(start).Seconds())
	}()

	if err := s.validator.Struct(payload); err != nil {
		observability.Evaluations().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradingResponse{}, err
	}

	if s.completer == nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		return dto.GradingResponse{}, ErrGraderUnavailable
	}

	// Two concurrent requests for the same enrollment number race on the
	// guard read below; serializing per student makes check-then-act atomic.
	unlock := s.lockEnrollment(payload.EnrollmentNumber)
	defer unlock()

	student, err := s.resolveStudent(ctx, payload)
	if err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_resolution_failed")
		return dto.GradingResponse{}, err
	}

	evaluated, err := s.evaluations.ExistsForStudent(ctx, student.ID)
	if err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "guard_check_failed")
		return dto.GradingResponse{}, err
	}
	if evaluated {
		observability.Evaluations().WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, "already_evaluated")
		return dto.GradingResponse{}, ErrAlreadyEvaluated
	}

	submission, err := s.reconciler.CreateAttempt(ctx, student, payload.Question.ModelName, payload.Question.Fields, payload.Submission.ModelCode, payload.Submission.ControllerCode)
	if err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_persist_failed")
		return dto.GradingResponse{}, err
	}
	span.SetAttributes(attribute.Int64("evaluation.submission_id", int64(submission.ID)))

	prompt := BuildEvaluationPrompt(payload.Question.ModelName, payload.Question.Fields, payload.Submission.ModelCode, payload.Submission.ControllerCode)

	completion, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider_call_failed")
		return dto.GradingResponse{}, fmt.Errorf("%w: %w", ErrUpstreamGrading, err)
	}

	report, err := ParseScoreReport(completion)
	if err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "response_normalization_failed")
		s.logger.Warn().Err(err).Str("enrollment_number", payload.EnrollmentNumber).Msg("AI completion could not be normalized")
		return dto.GradingResponse{}, fmt.Errorf("%w: %w", ErrUpstreamGrading, err)
	}

	evaluation := models.Evaluation{
		EnrollmentNumber:   student.EnrollmentNumber,
		StudentID:          student.ID,
		SubmissionID:       submission.ID,
		OverallScore:       report.OverallScore,
		Summary:            report.Summary,
		ModelScore:         report.Model.Score,
		ModelFeedback:      report.Model.Feedback,
		ControllerScore:    report.Controller.Score,
		ControllerFeedback: report.Controller.Feedback,
		Provider:           s.completer.Name(),
		EvaluatedAt:        s.now().UTC(),
	}
	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		observability.Evaluations().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_persist_failed")
		return dto.GradingResponse{}, err
	}

	if err := s.reconciler.MarkEvaluated(ctx, &submission); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to flip evaluated flag")
		span.RecordError(err)
	}

	s.publishCompleted(evaluation)
	observability.Evaluations().WithLabelValues("completed").Inc()

	span.SetAttributes(
		attribute.Int("evaluation.overall_score", evaluation.OverallScore),
		attribute.String("evaluation.grade", evaluation.Grade()),
	)

	s.logger.Info().
		Str("enrollment_number", student.EnrollmentNumber).
		Uint("evaluation_id", evaluation.ID).
		Int("overall_score", evaluation.OverallScore).
		Msg("evaluation completed")

	return dto.NewGradingResponse(evaluation), nil
}

// resolveStudent looks up the student, creating one from the request's
// assigned question when absent. This is the only path that auto-creates
// students; artifact uploads never do.
func (s *evaluationService) resolveStudent(ctx context.Context, payload dto.GradingRequest) (models.Student, error) {
	student, err := s.students.GetByEnrollment(ctx, payload.EnrollmentNumber)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Student{}, err
	}

	student = models.Student{
		EnrollmentNumber: payload.EnrollmentNumber,
		QuestionModel:    payload.Question.ModelName,
		QuestionFields:   datatypes.NewJSONSlice(payload.Question.Fields),
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return models.Student{}, err
	}

	s.logger.Info().Str("enrollment_number", student.EnrollmentNumber).Msg("student created from grading request")
	return student, nil
}

func (s *evaluationService) lockEnrollment(enrollmentNumber string) func() {
	value, _ := s.locks.LoadOrStore(enrollmentNumber, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *evaluationService) publishCompleted(evaluation models.Evaluation) {
	if s.events == nil {
		return
	}

	event := struct {
		EnrollmentNumber string    `json:"enrollmentNumber"`
		EvaluationID     uint      `json:"evaluationId"`
		SubmissionID     uint      `json:"submissionId"`
		OverallScore     int       `json:"overallScore"`
		Grade            string    `json:"grade"`
		EvaluatedAt      time.Time `json:"evaluatedAt"`
	}{
		EnrollmentNumber: evaluation.EnrollmentNumber,
		EvaluationID:     evaluation.ID,
		SubmissionID:     evaluation.SubmissionID,
		OverallScore:     evaluation.OverallScore,
		Grade:            evaluation.Grade(),
		EvaluatedAt:      evaluation.EvaluatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.events.Publish(evaluationEventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish evaluation event")
	}
}
