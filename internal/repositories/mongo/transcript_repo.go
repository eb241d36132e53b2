package mongo

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TranscriptCollection = "interview_transcripts"

type TranscriptRepository interface {
	// Save upserts by session id so a redelivered archive message is harmless.
	Save(ctx context.Context, doc *models.TranscriptDocument) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.TranscriptDocument, error)
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(db *mongo.Database) TranscriptRepository {
	return &transcriptRepo{col: db.Collection(TranscriptCollection)}
}

func (r *transcriptRepo) Save(ctx context.Context, doc *models.TranscriptDocument) error {
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"session_id": doc.SessionID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *transcriptRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.TranscriptDocument, error) {
	var doc models.TranscriptDocument
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
