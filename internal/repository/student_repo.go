package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// StudentRepository provides access to student records keyed by enrollment number.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	GetByEnrollment(ctx context.Context, enrollmentNumber string) (models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	Count(ctx context.Context) (int64, error)
	UpsertBatch(ctx context.Context, students []models.Student) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) GetByEnrollment(ctx context.Context, enrollmentNumber string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("enrollment_number = ?", enrollmentNumber).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&students).Error
	return students, err
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error
	return count, err
}

// UpsertBatch inserts roster entries, refreshing the assigned question for
// enrollment numbers that already exist.
func (r *studentRepository) UpsertBatch(ctx context.Context, students []models.Student) (int64, error) {
	if len(students) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"question_model", "question_fields", "updated_at"}),
	})

	result := tx.Create(&students)
	return result.RowsAffected, result.Error
}
