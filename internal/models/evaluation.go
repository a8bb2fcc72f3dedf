package models

import (
	"time"

	"gorm.io/datatypes"
)

// Feedback severities returned by the grading model.
const (
	FeedbackSuccess     = "SUCCESS"
	FeedbackImprovement = "IMPROVEMENT"
	FeedbackError       = "ERROR"
	FeedbackSyntax      = "SYNTAX"
)

// Maximum points per graded component.
const (
	ModelMaxScore      = 40
	ControllerMaxScore = 60
)

// IsValidFeedbackType reports whether t is a known feedback severity.
func IsValidFeedbackType(t string) bool {
	switch t {
	case FeedbackSuccess, FeedbackImprovement, FeedbackError, FeedbackSyntax:
		return true
	default:
		return false
	}
}

// FeedbackItem is a single remark attached to a graded component.
type FeedbackItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Evaluation is the once-only graded result for a submission. It is never
// updated in place; a student gets at most one.
type Evaluation struct {
	ID                 uint                              `gorm:"primaryKey" json:"id"`
	EnrollmentNumber   string                            `gorm:"size:32;index;not null" json:"enrollment_number"`
	StudentID          uint                              `gorm:"not null;index" json:"student_id"`
	SubmissionID       uint                              `gorm:"not null;index" json:"submission_id"`
	OverallScore       int                               `gorm:"not null" json:"overall_score"`
	Summary            string                            `gorm:"type:text;not null" json:"summary"`
	ModelScore         int                               `gorm:"not null" json:"model_score"`
	ModelFeedback      datatypes.JSONSlice[FeedbackItem] `json:"model_feedback"`
	ControllerScore    int                               `gorm:"not null" json:"controller_score"`
	ControllerFeedback datatypes.JSONSlice[FeedbackItem] `json:"controller_feedback"`
	Provider           string                            `gorm:"size:32" json:"provider"`
	EvaluatedAt        time.Time                         `json:"evaluated_at"`
	CreatedAt          time.Time                         `json:"created_at"`
	Student            Student                           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submission         Submission                        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Grade derives the letter grade from the overall score.
func (e Evaluation) Grade() string {
	return GradeForScore(e.OverallScore)
}

// GradeForScore maps an overall score to its letter grade bucket.
func GradeForScore(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// GradeBuckets lists the letter grades from best to worst.
func GradeBuckets() []string {
	return []string{"A+", "A", "B", "C", "D", "F"}
}
