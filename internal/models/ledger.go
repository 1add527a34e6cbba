package models

import "time"

// DownloadAttempt is one call of the download endpoint for a message.
type DownloadAttempt struct {
	ID          string
	CIF         string
	MessageID   string
	Outcome     string
	AttemptedAt time.Time
}

// SyncRun summarizes one taxpayer pass of a fetch.
type SyncRun struct {
	ID         string
	CIF        string
	Days       int
	StartedAt  time.Time
	FinishedAt time.Time
	Listed     int
	Saved      int
	Skipped    int
	Failed     int
	Error      string
}
