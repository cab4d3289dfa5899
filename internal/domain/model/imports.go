package model

import "time"

// ImportJob is one row of a bulk member import.
type ImportJob struct {
	BatchID string
	Row     int
	Input   CreateMemberInput
}

// ImportRowError explains why a row was not imported.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportStatus is the progress of one import batch.
type ImportStatus struct {
	ID        string           `json:"id"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors"`
	Done      bool             `json:"done"`
	CreatedAt time.Time        `json:"createdAt"`
}
