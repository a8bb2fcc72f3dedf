package dto

import "time"

// ScreenshotUploadResponse confirms a stored screenshot for one operation.
type ScreenshotUploadResponse struct {
	EnrollmentNumber string    `json:"enrollmentNumber"`
	Operation        string    `json:"operation"`
	SubmissionID     uint      `json:"submissionId"`
	Filename         string    `json:"filename"`
	URL              string    `json:"url"`
	SizeBytes        int64     `json:"sizeBytes"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// BulkScreenshotUploadResponse confirms a multi-slot upload.
type BulkScreenshotUploadResponse struct {
	EnrollmentNumber   string                              `json:"enrollmentNumber"`
	SubmissionID       uint                                `json:"submissionId"`
	UploadedOperations []string                            `json:"uploadedOperations"`
	Files              map[string]ScreenshotUploadResponse `json:"files"`
}

// ScreenshotStateResponse reports the filled slots for a student.
type ScreenshotStateResponse struct {
	EnrollmentNumber string                    `json:"enrollmentNumber"`
	SubmissionID     uint                      `json:"submissionId"`
	Screenshots      map[string]ScreenshotMeta `json:"screenshots"`
}
