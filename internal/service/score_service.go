package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
)

// ErrScoreNotFound means no attempt record exists under the id.
var ErrScoreNotFound = errors.New("score not found")

// scoreListLimit caps one page of attempt summaries.
const scoreListLimit = 50

// ScoreService reads back persisted attempt records for history and
// review screens. Writes go through the queue and flush worker, not here.
type ScoreService struct {
	repo *repository.ScoreRepository
	log  zerolog.Logger
}

func NewScoreService(repo *repository.ScoreRepository, log zerolog.Logger) *ScoreService {
	return &ScoreService{
		repo: repo,
		log:  log.With().Str("component", "score_service").Logger(),
	}
}

// List returns a user's attempt summaries newest-first, responses
// stripped. after > 0 returns records older than that id.
func (s *ScoreService) List(ctx context.Context, userID string, after int64) ([]model.AttemptRecord, error) {
	records, err := s.repo.ListByUser(ctx, userID, scoreListLimit, after)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.AttemptRecord{}
	}
	return records, nil
}

// Get returns one full attempt record, responses included.
func (s *ScoreService) Get(ctx context.Context, id int64) (*model.AttemptRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrScoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
