package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// ScreenshotMeta describes one uploaded screenshot slot.
type ScreenshotMeta struct {
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

// SubmissionResponse represents a submission to API consumers.
type SubmissionResponse struct {
	ID               uint                      `json:"id"`
	EnrollmentNumber string                    `json:"enrollmentNumber"`
	StudentID        uint                      `json:"studentId"`
	Question         QuestionResponse          `json:"question"`
	ModelCode        string                    `json:"modelCode"`
	ControllerCode   string                    `json:"controllerCode"`
	Screenshots      map[string]ScreenshotMeta `json:"screenshots"`
	IsEvaluated      bool                      `json:"isEvaluated"`
	SubmittedAt      time.Time                 `json:"submittedAt"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// NewSubmissionResponse builds a response DTO from a submission model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	shots := make(map[string]ScreenshotMeta)
	for op, shot := range submission.Screenshots() {
		shots[op] = ScreenshotMeta{
			Filename:   shot.Filename,
			Path:       shot.Path,
			UploadedAt: shot.UploadedAt,
		}
	}

	return SubmissionResponse{
		ID:               submission.ID,
		EnrollmentNumber: submission.EnrollmentNumber,
		StudentID:        submission.StudentID,
		Question: QuestionResponse{
			ModelName: submission.QuestionModel,
			Fields:    []string(submission.QuestionFields),
		},
		ModelCode:      submission.ModelCode,
		ControllerCode: submission.ControllerCode,
		Screenshots:    shots,
		IsEvaluated:    submission.IsEvaluated,
		SubmittedAt:    submission.SubmittedAt,
		CreatedAt:      submission.CreatedAt,
	}
}

// NewSubmissionResponseSlice converts a batch of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
