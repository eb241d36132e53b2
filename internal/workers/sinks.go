package workers

import (
	"bytes"
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/storage"
)

// Sink persists one archived interview somewhere.
type Sink interface {
	Name() string
	Store(ctx context.Context, e models.ArchiveEntry) error
}

type RecordSink struct {
	Records pgrepo.RecordRepo
}

func (RecordSink) Name() string { return "postgres" }

func (s RecordSink) Store(ctx context.Context, e models.ArchiveEntry) error {
	rec, err := NewInterviewRecord(e)
	if err != nil {
		return err
	}
	return s.Records.Save(ctx, rec)
}

type TranscriptSink struct {
	Transcripts mongorepo.TranscriptRepository
}

func (TranscriptSink) Name() string { return "mongo" }

func (s TranscriptSink) Store(ctx context.Context, e models.ArchiveEntry) error {
	return s.Transcripts.Save(ctx, NewTranscriptDocument(e))
}

type ExportSink struct {
	Uploader storage.Uploader
}

func (ExportSink) Name() string { return "gcs" }

func (s ExportSink) Store(ctx context.Context, e models.ArchiveEntry) error {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.Uploader.Upload(ctx, storage.ReportObjectName(e.SessionID), "application/json", bytes.NewReader(b))
	return err
}

func NewInterviewRecord(e models.ArchiveEntry) (*models.InterviewRecord, error) {
	rec := &models.InterviewRecord{
		SessionID:      e.SessionID,
		UserID:         e.UserID,
		Role:           e.Config.Role,
		InterviewType:  string(e.Config.Type),
		Difficulty:     string(e.Config.Difficulty),
		Language:       string(e.Config.Language),
		Persona:        string(e.Config.Persona),
		TotalQuestions: e.Config.TotalQuestions,
		Transcript:     e.Transcript,
		StartedAt:      e.StartedAt,
		EndedAt:        e.EndedAt,
	}
	if e.Report != nil {
		report, err := json.Marshal(e.Report)
		if err != nil {
			return nil, err
		}
		rec.Report = datatypes.JSON(report)
		rec.OverallScore = e.Report.OverallScore
		rec.Strengths = e.Report.Strengths
		rec.Improvements = e.Report.Improvements
	}
	return rec, nil
}

func NewTranscriptDocument(e models.ArchiveEntry) *models.TranscriptDocument {
	turns := make([]models.Turn, 0, len(e.Turns))
	for _, t := range e.Turns {
		if t.Role != models.RoleSystem {
			turns = append(turns, t)
		}
	}
	ended := e.EndedAt
	dur := int64(e.EndedAt.Sub(e.StartedAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	doc := &models.TranscriptDocument{
		SessionID:       e.SessionID,
		UserID:          e.UserID,
		Config:          e.Config,
		Turns:           turns,
		CreatedAt:       e.StartedAt,
		EndedAt:         &ended,
		DurationSeconds: dur,
	}
	if e.Report != nil {
		doc.OverallScore = e.Report.OverallScore
	}
	return doc
}
