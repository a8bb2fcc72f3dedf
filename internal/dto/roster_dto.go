package dto

// RosterEntry assigns a question to one enrollment number.
type RosterEntry struct {
	EnrollmentNumber string          `json:"enrollmentNumber" validate:"required"`
	Question         QuestionPayload `json:"question" validate:"required"`
}

// RosterSeedRequest is the payload for the roster seeding endpoint.
type RosterSeedRequest struct {
	Token    string        `json:"token" validate:"required"`
	Students []RosterEntry `json:"students" validate:"required,min=1,dive"`
}

// RosterSeedResponse reports how many roster rows were written.
type RosterSeedResponse struct {
	Affected int64 `json:"affected"`
}
