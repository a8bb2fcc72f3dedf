package models

import (
	"time"

	"gorm.io/datatypes"
)

// Screenshot operation keys, one per CRUD handler the student must prove.
const (
	ScreenshotOpInsert   = "insert"
	ScreenshotOpReadAll  = "readAll"
	ScreenshotOpReadByID = "readById"
	ScreenshotOpUpdate   = "update"
	ScreenshotOpDelete   = "delete"
)

// ScreenshotOperations lists the valid operation keys in rubric order.
func ScreenshotOperations() []string {
	return []string{ScreenshotOpInsert, ScreenshotOpReadAll, ScreenshotOpReadByID, ScreenshotOpUpdate, ScreenshotOpDelete}
}

// IsValidScreenshotOperation reports whether op is one of the five CRUD keys.
func IsValidScreenshotOperation(op string) bool {
	switch op {
	case ScreenshotOpInsert, ScreenshotOpReadAll, ScreenshotOpReadByID, ScreenshotOpUpdate, ScreenshotOpDelete:
		return true
	default:
		return false
	}
}

// Screenshot holds the stored file metadata for one CRUD proof slot.
type Screenshot struct {
	Filename   string     `json:"filename,omitempty"`
	Path       string     `json:"path,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// Present reports whether the slot has been filled.
func (s Screenshot) Present() bool {
	return s.Filename != ""
}

// Submission aggregates one student's attempt: the question captured at
// submission time, the submitted code pair, and five screenshot slots that
// may be filled independently and in any order.
type Submission struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	EnrollmentNumber string                      `gorm:"size:32;index;not null" json:"enrollment_number"`
	StudentID        uint                        `gorm:"not null;index" json:"student_id"`
	QuestionModel    string                      `gorm:"size:128;not null" json:"question_model"`
	QuestionFields   datatypes.JSONSlice[string] `json:"question_fields"`
	ModelCode        string                      `gorm:"type:text" json:"model_code"`
	ControllerCode   string                      `gorm:"type:text" json:"controller_code"`
	InsertShot       Screenshot                  `gorm:"embedded;embeddedPrefix:insert_shot_" json:"insert_screenshot"`
	ReadAllShot      Screenshot                  `gorm:"embedded;embeddedPrefix:read_all_shot_" json:"read_all_screenshot"`
	ReadByIDShot     Screenshot                  `gorm:"embedded;embeddedPrefix:read_by_id_shot_" json:"read_by_id_screenshot"`
	UpdateShot       Screenshot                  `gorm:"embedded;embeddedPrefix:update_shot_" json:"update_screenshot"`
	DeleteShot       Screenshot                  `gorm:"embedded;embeddedPrefix:delete_shot_" json:"delete_screenshot"`
	IsEvaluated      bool                        `gorm:"not null;default:false" json:"is_evaluated"`
	SubmittedAt      time.Time                   `json:"submitted_at"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	Student          Student                     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ScreenshotByOperation returns the slot for the given operation key.
func (s Submission) ScreenshotByOperation(op string) (Screenshot, bool) {
	switch op {
	case ScreenshotOpInsert:
		return s.InsertShot, true
	case ScreenshotOpReadAll:
		return s.ReadAllShot, true
	case ScreenshotOpReadByID:
		return s.ReadByIDShot, true
	case ScreenshotOpUpdate:
		return s.UpdateShot, true
	case ScreenshotOpDelete:
		return s.DeleteShot, true
	default:
		return Screenshot{}, false
	}
}

// Screenshots returns the populated slots keyed by operation.
func (s Submission) Screenshots() map[string]Screenshot {
	shots := make(map[string]Screenshot, 5)
	for _, op := range ScreenshotOperations() {
		if shot, _ := s.ScreenshotByOperation(op); shot.Present() {
			shots[op] = shot
		}
	}
	return shots
}
