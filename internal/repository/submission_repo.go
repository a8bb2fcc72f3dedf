package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// SubmissionRepository exposes persistence helpers for submissions. Screenshot
// and code writes are column-scoped so independent uploads never clobber
// sibling fields.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	LatestByEnrollment(ctx context.Context, enrollmentNumber string) (models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	Count(ctx context.Context) (int64, error)
	SetCode(ctx context.Context, id uint, modelCode, controllerCode string) error
	SetScreenshot(ctx context.Context, id uint, operation string, shot models.Screenshot) error
	MarkEvaluated(ctx context.Context, id uint) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// LatestByEnrollment returns the current submission for a student. Creation
// time alone is not a reliable order under clock ties, so the primary key
// breaks them.
func (r *submissionRepository) LatestByEnrollment(ctx context.Context, enrollmentNumber string) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("enrollment_number = ?", enrollmentNumber).
		Order("created_at DESC").
		Order("id DESC").
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).Count(&count).Error
	return count, err
}

// SetCode overwrites the code pair atomically, leaving screenshot slots untouched.
func (r *submissionRepository) SetCode(ctx context.Context, id uint, modelCode, controllerCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"model_code":      modelCode,
			"controller_code": controllerCode,
		}).Error
}

// SetScreenshot fills exactly one slot, identified by operation key.
func (r *submissionRepository) SetScreenshot(ctx context.Context, id uint, operation string, shot models.Screenshot) error {
	prefix, ok := screenshotColumnPrefix(operation)
	if !ok {
		return fmt.Errorf("unknown screenshot operation %q", operation)
	}

	uploadedAt := shot.UploadedAt
	if uploadedAt == nil {
		now := time.Now().UTC()
		uploadedAt = &now
	}

	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			prefix + "filename":    shot.Filename,
			prefix + "path":        shot.Path,
			prefix + "uploaded_at": uploadedAt,
		}).Error
}

func (r *submissionRepository) MarkEvaluated(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("is_evaluated", true).Error
}

func screenshotColumnPrefix(operation string) (string, bool) {
	switch operation {
	case models.ScreenshotOpInsert:
		return "insert_shot_", true
	case models.ScreenshotOpReadAll:
		return "read_all_shot_", true
	case models.ScreenshotOpReadByID:
		return "read_by_id_shot_", true
	case models.ScreenshotOpUpdate:
		return "update_shot_", true
	case models.ScreenshotOpDelete:
		return "delete_shot_", true
	default:
		return "", false
	}
}
