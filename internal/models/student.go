package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student represents a learner identified by an enrollment number, together
// with the practical question assigned to them.
type Student struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	EnrollmentNumber string                      `gorm:"size:32;uniqueIndex;not null" json:"enrollment_number"`
	Name             string                      `gorm:"size:255" json:"name"`
	Email            string                      `gorm:"size:255" json:"email"`
	QuestionModel    string                      `gorm:"size:128;not null" json:"question_model"`
	QuestionFields   datatypes.JSONSlice[string] `json:"question_fields"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}
