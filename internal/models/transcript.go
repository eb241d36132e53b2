package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TranscriptDocument keeps the full turn history of a finished interview.
type TranscriptDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Config InterviewConfig `bson:"config" json:"config"`
	Turns  []Turn          `bson:"turns" json:"turns"` // system turn excluded

	OverallScore int        `bson:"overall_score" json:"overall_score"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	EndedAt      *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
