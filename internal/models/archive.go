package models

import "time"

// ArchiveEntry is everything worth keeping about a finished interview.
type ArchiveEntry struct {
	SessionID  string            `json:"session_id"`
	UserID     string            `json:"user_id,omitempty"`
	Config     InterviewConfig   `json:"config"`
	Report     *EvaluationReport `json:"report"`
	Turns      []Turn            `json:"turns"`
	Transcript string            `json:"transcript"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}

// CachedReport is a finished report together with the user allowed to read it.
type CachedReport struct {
	UserID string            `json:"user_id,omitempty"`
	Report *EvaluationReport `json:"report"`
}
