package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// QuestionResponse exposes a student's assigned question.
type QuestionResponse struct {
	ModelName string   `json:"modelName"`
	Fields    []string `json:"fields"`
}

// StudentResponse represents a student record to API consumers.
type StudentResponse struct {
	ID               uint             `json:"id"`
	EnrollmentNumber string           `json:"enrollmentNumber"`
	Name             string           `json:"name,omitempty"`
	Email            string           `json:"email,omitempty"`
	AssignedQuestion QuestionResponse `json:"assignedQuestion"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// StudentUpdateRequest carries mutable profile fields. The enrollment number
// is the natural key and cannot change.
type StudentUpdateRequest struct {
	Name  string `json:"name" validate:"omitempty,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
}

// StudentStats summarises a student's activity.
type StudentStats struct {
	TotalSubmissions int     `json:"totalSubmissions"`
	TotalEvaluations int     `json:"totalEvaluations"`
	AverageScore     float64 `json:"averageScore"`
	BestScore        int     `json:"bestScore"`
}

// StudentDetailResponse bundles a student with their history.
type StudentDetailResponse struct {
	Student     StudentResponse      `json:"student"`
	Submissions []SubmissionResponse `json:"submissions"`
	Evaluations []EvaluationResponse `json:"evaluations"`
	Stats       StudentStats         `json:"stats"`
}

// NewStudentResponse builds a response DTO from a student model.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:               student.ID,
		EnrollmentNumber: student.EnrollmentNumber,
		Name:             student.Name,
		Email:            student.Email,
		AssignedQuestion: QuestionResponse{
			ModelName: student.QuestionModel,
			Fields:    []string(student.QuestionFields),
		},
		CreatedAt: student.CreatedAt,
	}
}

// NewStudentResponseSlice converts a batch of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
