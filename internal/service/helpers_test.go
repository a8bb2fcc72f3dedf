package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryStudentRepo struct {
	mu       sync.Mutex
	students map[string]models.Student
	nextID   uint
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[string]models.Student)}
}

func (r *memoryStudentRepo) Create(_ context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	student.ID = r.nextID
	student.CreatedAt = time.Now()
	r.students[student.EnrollmentNumber] = *student
	return nil
}

func (r *memoryStudentRepo) Update(_ context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[student.EnrollmentNumber] = *student
	return nil
}

func (r *memoryStudentRepo) GetByEnrollment(_ context.Context, enrollmentNumber string) (models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[enrollmentNumber]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (r *memoryStudentRepo) List(_ context.Context) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	students := make([]models.Student, 0, len(r.students))
	for _, student := range r.students {
		students = append(students, student)
	}
	return students, nil
}

func (r *memoryStudentRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.students)), nil
}

func (r *memoryStudentRepo) UpsertBatch(_ context.Context, students []models.Student) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range students {
		existing, ok := r.students[students[i].EnrollmentNumber]
		if ok {
			existing.QuestionModel = students[i].QuestionModel
			existing.QuestionFields = students[i].QuestionFields
			r.students[students[i].EnrollmentNumber] = existing
			continue
		}
		r.nextID++
		students[i].ID = r.nextID
		r.students[students[i].EnrollmentNumber] = students[i]
	}
	return int64(len(students)), nil
}

type memorySubmissionRepo struct {
	mu          sync.Mutex
	submissions []models.Submission
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{}
}

func (r *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	submission.ID = r.nextID
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now()
	}
	r.submissions = append(r.submissions, *submission)
	return nil
}

func (r *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, submission := range r.submissions {
		if submission.ID == id {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (r *memorySubmissionRepo) LatestByEnrollment(_ context.Context, enrollmentNumber string) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Submission
	for i := range r.submissions {
		submission := &r.submissions[i]
		if submission.EnrollmentNumber != enrollmentNumber {
			continue
		}
		if latest == nil ||
			submission.CreatedAt.After(latest.CreatedAt) ||
			(submission.CreatedAt.Equal(latest.CreatedAt) && submission.ID > latest.ID) {
			latest = submission
		}
	}
	if latest == nil {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

func (r *memorySubmissionRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Submission
	for i := len(r.submissions) - 1; i >= 0; i-- {
		if r.submissions[i].StudentID == studentID {
			result = append(result, r.submissions[i])
		}
	}
	return result, nil
}

func (r *memorySubmissionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.submissions)), nil
}

func (r *memorySubmissionRepo) SetCode(_ context.Context, id uint, modelCode, controllerCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.submissions {
		if r.submissions[i].ID == id {
			r.submissions[i].ModelCode = modelCode
			r.submissions[i].ControllerCode = controllerCode
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memorySubmissionRepo) SetScreenshot(_ context.Context, id uint, operation string, shot models.Screenshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.submissions {
		if r.submissions[i].ID != id {
			continue
		}
		switch operation {
		case models.ScreenshotOpInsert:
			r.submissions[i].InsertShot = shot
		case models.ScreenshotOpReadAll:
			r.submissions[i].ReadAllShot = shot
		case models.ScreenshotOpReadByID:
			r.submissions[i].ReadByIDShot = shot
		case models.ScreenshotOpUpdate:
			r.submissions[i].UpdateShot = shot
		case models.ScreenshotOpDelete:
			r.submissions[i].DeleteShot = shot
		default:
			return ErrInvalidOperation
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memorySubmissionRepo) MarkEvaluated(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.submissions {
		if r.submissions[i].ID == id {
			r.submissions[i].IsEvaluated = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memoryEvaluationRepo struct {
	mu          sync.Mutex
	evaluations []models.Evaluation
	nextID      uint
}

func newMemoryEvaluationRepo() *memoryEvaluationRepo {
	return &memoryEvaluationRepo{}
}

func (r *memoryEvaluationRepo) Create(_ context.Context, evaluation *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	evaluation.ID = r.nextID
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now()
	}
	r.evaluations = append(r.evaluations, *evaluation)
	return nil
}

func (r *memoryEvaluationRepo) GetByID(_ context.Context, id uint) (models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, evaluation := range r.evaluations {
		if evaluation.ID == id {
			return evaluation, nil
		}
	}
	return models.Evaluation{}, gorm.ErrRecordNotFound
}

func (r *memoryEvaluationRepo) List(_ context.Context, filter repository.EvaluationFilter) ([]models.Evaluation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Evaluation
	for i := len(r.evaluations) - 1; i >= 0; i-- {
		evaluation := r.evaluations[i]
		if filter.EnrollmentNumber != "" && evaluation.EnrollmentNumber != filter.EnrollmentNumber {
			continue
		}
		if filter.MinScore != nil && evaluation.OverallScore < *filter.MinScore {
			continue
		}
		if filter.MaxScore != nil && evaluation.OverallScore > *filter.MaxScore {
			continue
		}
		matched = append(matched, evaluation)
	}

	total := int64(len(matched))
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryEvaluationRepo) ListByEnrollment(_ context.Context, enrollmentNumber string) ([]models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Evaluation
	for i := len(r.evaluations) - 1; i >= 0; i-- {
		if r.evaluations[i].EnrollmentNumber == enrollmentNumber {
			result = append(result, r.evaluations[i])
		}
	}
	return result, nil
}

func (r *memoryEvaluationRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Evaluation
	for i := len(r.evaluations) - 1; i >= 0; i-- {
		if r.evaluations[i].StudentID == studentID {
			result = append(result, r.evaluations[i])
		}
	}
	return result, nil
}

func (r *memoryEvaluationRepo) ExistsForStudent(_ context.Context, studentID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, evaluation := range r.evaluations {
		if evaluation.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryEvaluationRepo) All(_ context.Context) ([]models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Evaluation(nil), r.evaluations...), nil
}

func (r *memoryEvaluationRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.evaluations)), nil
}
