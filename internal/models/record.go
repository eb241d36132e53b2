package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// InterviewRecord is the archived summary of a finished interview.
type InterviewRecord struct {
	SessionID      string         `gorm:"column:session_id;type:uuid;primaryKey" json:"session_id"`
	UserID         string         `gorm:"column:user_id;type:text;index" json:"user_id,omitempty"`
	Role           string         `gorm:"column:role;type:text" json:"role"`
	InterviewType  string         `gorm:"column:interview_type;type:text" json:"interview_type"`
	Difficulty     string         `gorm:"column:difficulty;type:text" json:"difficulty"`
	Language       string         `gorm:"column:language;type:text" json:"language"`
	Persona        string         `gorm:"column:persona;type:text" json:"persona"`
	TotalQuestions int            `gorm:"column:total_questions;type:integer" json:"total_questions"`
	OverallScore   int            `gorm:"column:overall_score;type:integer;index" json:"overall_score"`
	Strengths      pq.StringArray `gorm:"column:strengths;type:text[]" json:"strengths"`
	Improvements   pq.StringArray `gorm:"column:improvements;type:text[]" json:"improvements"`
	Report         datatypes.JSON `gorm:"column:report;type:jsonb" json:"report"`
	Transcript     string         `gorm:"column:transcript;type:text" json:"transcript"`
	StartedAt      time.Time      `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	EndedAt        time.Time      `gorm:"column:ended_at;type:timestamptz;index" json:"ended_at"`
}

func (InterviewRecord) TableName() string { return "interview_records" }
