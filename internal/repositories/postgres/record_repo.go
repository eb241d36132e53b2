package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepo interface {
	Migrate(ctx context.Context) error
	// Save inserts the record, replacing an earlier copy for the same session.
	Save(ctx context.Context, rec *models.InterviewRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.InterviewRecord, error)
}

type recordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) RecordRepo {
	return &recordRepo{db: db}
}

func (r *recordRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.InterviewRecord{})
}

func (r *recordRepo) Save(ctx context.Context, rec *models.InterviewRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

func (r *recordRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewRecord, error) {
	var row models.InterviewRecord
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *recordRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.InterviewRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.InterviewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
