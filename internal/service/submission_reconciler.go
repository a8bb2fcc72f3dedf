package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrStudentNotFound indicates no student exists for the enrollment number.
var ErrStudentNotFound = errors.New("student not found")

// ErrSubmissionNotFound indicates no submission exists for the enrollment number.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrInvalidOperation indicates an unknown screenshot operation key.
var ErrInvalidOperation = errors.New("invalid screenshot operation")

// SubmissionReconciler converges out-of-order, partial artifact uploads onto
// one consistent current submission per student. Code and screenshot slots
// are updated independently; filling one never erases a sibling.
type SubmissionReconciler interface {
	EnsureCurrent(ctx context.Context, enrollmentNumber string) (models.Submission, error)
	CreateAttempt(ctx context.Context, student models.Student, questionModel string, questionFields []string, modelCode, controllerCode string) (models.Submission, error)
	AttachCode(ctx context.Context, submission *models.Submission, modelCode, controllerCode string) error
	AttachScreenshot(ctx context.Context, enrollmentNumber, operation string, shot models.Screenshot) (models.Submission, error)
	MarkEvaluated(ctx context.Context, submission *models.Submission) error
}

type submissionReconciler struct {
	submissions repository.SubmissionRepository
	students    repository.StudentRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionReconciler constructs the reconciler.
func NewSubmissionReconciler(submissionRepo repository.SubmissionRepository, studentRepo repository.StudentRepository, logger zerolog.Logger) SubmissionReconciler {
	return &submissionReconciler{
		submissions: submissionRepo,
		students:    studentRepo,
		logger:      logger.With().Str("component", "submission_reconciler").Logger(),
		now:         time.Now,
	}
}

// EnsureCurrent returns the student's most recent submission, creating an
// empty one seeded from the assigned question when none exists yet. The
// student must already exist; artifact uploads never fabricate students.
func (r *submissionReconciler) EnsureCurrent(ctx context.Context, enrollmentNumber string) (models.Submission, error) {
	submission, err := r.submissions.LatestByEnrollment(ctx, enrollmentNumber)
	if err == nil {
		return submission, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, err
	}

	student, err := r.students.GetByEnrollment(ctx, enrollmentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrStudentNotFound
		}
		return models.Submission{}, err
	}

	submission = models.Submission{
		EnrollmentNumber: student.EnrollmentNumber,
		StudentID:        student.ID,
		QuestionModel:    student.QuestionModel,
		QuestionFields:   student.QuestionFields,
		SubmittedAt:      r.now().UTC(),
	}
	if err := r.submissions.Create(ctx, &submission); err != nil {
		return models.Submission{}, err
	}

	r.logger.Info().Str("enrollment_number", enrollmentNumber).Uint("submission_id", submission.ID).Msg("created empty submission for artifact uploads")
	return submission, nil
}

// CreateAttempt persists a fresh submission for a graded attempt, capturing
// the question and code at this moment. Prior screenshot-only submissions are
// left untouched rather than merged.
func (r *submissionReconciler) CreateAttempt(ctx context.Context, student models.Student, questionModel string, questionFields []string, modelCode, controllerCode string) (models.Submission, error) {
	submission := models.Submission{
		EnrollmentNumber: student.EnrollmentNumber,
		StudentID:        student.ID,
		QuestionModel:    questionModel,
		QuestionFields:   datatypes.NewJSONSlice(questionFields),
		ModelCode:        modelCode,
		ControllerCode:   controllerCode,
		SubmittedAt:      r.now().UTC(),
	}
	if err := r.submissions.Create(ctx, &submission); err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// AttachCode overwrites both code fields as a pair; they always arrive together.
func (r *submissionReconciler) AttachCode(ctx context.Context, submission *models.Submission, modelCode, controllerCode string) error {
	if err := r.submissions.SetCode(ctx, submission.ID, modelCode, controllerCode); err != nil {
		return err
	}
	submission.ModelCode = modelCode
	submission.ControllerCode = controllerCode
	return nil
}

// AttachScreenshot fills exactly one slot on the student's current
// submission, creating the submission first when needed. Re-uploading an
// operation overwrites that slot only.
func (r *submissionReconciler) AttachScreenshot(ctx context.Context, enrollmentNumber, operation string, shot models.Screenshot) (models.Submission, error) {
	if !models.IsValidScreenshotOperation(operation) {
		return models.Submission{}, ErrInvalidOperation
	}

	submission, err := r.EnsureCurrent(ctx, enrollmentNumber)
	if err != nil {
		return models.Submission{}, err
	}

	if shot.UploadedAt == nil {
		uploadedAt := r.now().UTC()
		shot.UploadedAt = &uploadedAt
	}

	if err := r.submissions.SetScreenshot(ctx, submission.ID, operation, shot); err != nil {
		return models.Submission{}, err
	}

	return r.submissions.GetByID(ctx, submission.ID)
}

// MarkEvaluated flips the evaluated flag; calling it again is a no-op.
func (r *submissionReconciler) MarkEvaluated(ctx context.Context, submission *models.Submission) error {
	if submission.IsEvaluated {
		return nil
	}
	if err := r.submissions.MarkEvaluated(ctx, submission.ID); err != nil {
		return err
	}
	submission.IsEvaluated = true
	return nil
}
