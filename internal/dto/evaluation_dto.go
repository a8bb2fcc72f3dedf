package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// QuestionPayload carries the assigned question inside a grading request.
type QuestionPayload struct {
	ModelName string   `json:"modelName" validate:"required"`
	Fields    []string `json:"fields" validate:"required,min=1,dive,required"`
}

// CodePayload carries the submitted code pair. Both parts always arrive together.
type CodePayload struct {
	ModelCode      string `json:"modelCode" validate:"required"`
	ControllerCode string `json:"controllerCode" validate:"required"`
}

// GradingRequest is the inbound payload for a grading attempt.
type GradingRequest struct {
	EnrollmentNumber string          `json:"enrollmentNumber" validate:"required"`
	Question         QuestionPayload `json:"question" validate:"required"`
	Submission       CodePayload     `json:"submission" validate:"required"`
}

// FeedbackEntry is one graded remark.
type FeedbackEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ComponentResult is the graded outcome for one rubric component.
type ComponentResult struct {
	Score    int             `json:"score"`
	MaxScore int             `json:"maxScore"`
	Feedback []FeedbackEntry `json:"feedback"`
}

// GradingResponse is returned after a successful grading attempt.
type GradingResponse struct {
	EnrollmentNumber     string          `json:"enrollmentNumber"`
	EvaluationTimestamp  time.Time       `json:"evaluationTimestamp"`
	EvaluationID         uint            `json:"evaluationId"`
	SubmissionID         uint            `json:"submissionId"`
	StudentID            uint            `json:"studentId"`
	Grade                string          `json:"grade"`
	OverallScore         int             `json:"overallScore"`
	Summary              string          `json:"summary"`
	ModelEvaluation      ComponentResult `json:"modelEvaluation"`
	ControllerEvaluation ComponentResult `json:"controllerEvaluation"`
}

// EvaluationResponse represents a stored evaluation for history endpoints.
type EvaluationResponse struct {
	ID                   uint            `json:"id"`
	EnrollmentNumber     string          `json:"enrollmentNumber"`
	StudentID            uint            `json:"studentId"`
	SubmissionID         uint            `json:"submissionId"`
	OverallScore         int             `json:"overallScore"`
	Grade                string          `json:"grade"`
	Summary              string          `json:"summary"`
	ModelEvaluation      ComponentResult `json:"modelEvaluation"`
	ControllerEvaluation ComponentResult `json:"controllerEvaluation"`
	Provider             string          `json:"provider"`
	EvaluatedAt          time.Time       `json:"evaluatedAt"`
}

// Pagination describes the page window of a listing.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// EvaluationListResponse is a paginated evaluation listing.
type EvaluationListResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
	Pagination  Pagination           `json:"pagination"`
}

// StudentEvaluationStats summarises one student's graded history.
type StudentEvaluationStats struct {
	TotalEvaluations int     `json:"totalEvaluations"`
	AverageScore     float64 `json:"averageScore"`
	BestScore        int     `json:"bestScore"`
	WorstScore       int     `json:"worstScore"`
	Improvement      int     `json:"improvement"`
}

// StudentEvaluationHistoryResponse pairs a student's evaluations with stats.
type StudentEvaluationHistoryResponse struct {
	Evaluations []EvaluationResponse   `json:"evaluations"`
	Stats       StudentEvaluationStats `json:"stats"`
}

// ScoreAverages aggregates stored scores across all evaluations.
type ScoreAverages struct {
	AverageOverallScore    float64 `json:"averageOverallScore"`
	AverageModelScore      float64 `json:"averageModelScore"`
	AverageControllerScore float64 `json:"averageControllerScore"`
	MaxScore               int     `json:"maxScore"`
	MinScore               int     `json:"minScore"`
}

// EvaluationStatsResponse is the global reporting payload.
type EvaluationStatsResponse struct {
	Totals struct {
		Evaluations int64 `json:"evaluations"`
		Students    int64 `json:"students"`
		Submissions int64 `json:"submissions"`
	} `json:"totals"`
	ScoreDistribution map[string]int `json:"scoreDistribution"`
	Averages          ScoreAverages  `json:"averages"`
	LastUpdated       time.Time      `json:"lastUpdated"`
}

// NewComponentResult converts stored component fields into a DTO.
func NewComponentResult(score, maxScore int, feedback []models.FeedbackItem) ComponentResult {
	entries := make([]FeedbackEntry, 0, len(feedback))
	for _, item := range feedback {
		entries = append(entries, FeedbackEntry{Type: item.Type, Message: item.Message})
	}
	return ComponentResult{Score: score, MaxScore: maxScore, Feedback: entries}
}

// NewEvaluationResponse builds a response DTO from a stored evaluation.
func NewEvaluationResponse(evaluation models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:                   evaluation.ID,
		EnrollmentNumber:     evaluation.EnrollmentNumber,
		StudentID:            evaluation.StudentID,
		SubmissionID:         evaluation.SubmissionID,
		OverallScore:         evaluation.OverallScore,
		Grade:                evaluation.Grade(),
		Summary:              evaluation.Summary,
		ModelEvaluation:      NewComponentResult(evaluation.ModelScore, models.ModelMaxScore, evaluation.ModelFeedback),
		ControllerEvaluation: NewComponentResult(evaluation.ControllerScore, models.ControllerMaxScore, evaluation.ControllerFeedback),
		Provider:             evaluation.Provider,
		EvaluatedAt:          evaluation.EvaluatedAt,
	}
}

// NewEvaluationResponseSlice converts a batch of evaluations.
func NewEvaluationResponseSlice(evaluations []models.Evaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}
	return responses
}

// NewGradingResponse assembles the grading reply from the persisted records.
func NewGradingResponse(evaluation models.Evaluation) GradingResponse {
	return GradingResponse{
		EnrollmentNumber:     evaluation.EnrollmentNumber,
		EvaluationTimestamp:  evaluation.EvaluatedAt,
		EvaluationID:         evaluation.ID,
		SubmissionID:         evaluation.SubmissionID,
		StudentID:            evaluation.StudentID,
		Grade:                evaluation.Grade(),
		OverallScore:         evaluation.OverallScore,
		Summary:              evaluation.Summary,
		ModelEvaluation:      NewComponentResult(evaluation.ModelScore, models.ModelMaxScore, evaluation.ModelFeedback),
		ControllerEvaluation: NewComponentResult(evaluation.ControllerScore, models.ControllerMaxScore, evaluation.ControllerFeedback),
	}
}
