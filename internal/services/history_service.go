package services

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
)

const maxHistoryLimit = 100

// HistoryService lists archived interviews of a user.
type HistoryService interface {
	List(ctx context.Context, userID string, limit int) ([]models.InterviewRecord, error)
}

type historyService struct {
	records pgrepo.RecordRepo
}

func NewHistoryService(records pgrepo.RecordRepo) HistoryService {
	return &historyService{records: records}
}

func (s *historyService) List(ctx context.Context, userID string, limit int) ([]models.InterviewRecord, error) {
	const op = "HistoryService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "user is required", nil)
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	rows, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return rows, nil
}
