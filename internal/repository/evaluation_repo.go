package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// EvaluationFilter narrows evaluation listings.
type EvaluationFilter struct {
	EnrollmentNumber string
	MinScore         *int
	MaxScore         *int
	Page             int
	Limit            int
}

// EvaluationRepository exposes persistence helpers for graded results.
// Evaluations are insert-only; there is no update path.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error)
	ListByEnrollment(ctx context.Context, enrollmentNumber string) ([]models.Evaluation, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Evaluation, error)
	ExistsForStudent(ctx context.Context, studentID uint) (bool, error)
	All(ctx context.Context) ([]models.Evaluation, error)
	Count(ctx context.Context) (int64, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository constructs an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Submission").
		First(&evaluation, id).Error
	if err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Evaluation{})

	if filter.EnrollmentNumber != "" {
		query = query.Where("enrollment_number = ?", filter.EnrollmentNumber)
	}
	if filter.MinScore != nil {
		query = query.Where("overall_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		query = query.Where("overall_score <= ?", *filter.MaxScore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var evaluations []models.Evaluation
	err := query.
		Preload("Student").
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&evaluations).Error
	if err != nil {
		return nil, 0, err
	}

	return evaluations, total, nil
}

func (r *evaluationRepository) ListByEnrollment(ctx context.Context, enrollmentNumber string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Where("enrollment_number = ?", enrollmentNumber).
		Order("created_at DESC").
		Order("id DESC").
		Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&evaluations).Error
	return evaluations, err
}

// ExistsForStudent backs the single-attempt guard.
func (r *evaluationRepository) ExistsForStudent(ctx context.Context, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *evaluationRepository) All(ctx context.Context) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).Count(&count).Error
	return count, err
}
