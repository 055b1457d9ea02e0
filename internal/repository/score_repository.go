package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Insert stores a finished attempt and returns its generated id.
func (r *ScoreRepository) Insert(ctx context.Context, rec *model.AttemptRecord) (int64, error) {
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO scores (user_id, paper, score, meta, ts)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id`,
		rec.UserID, rec.Paper, rec.Score, meta).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByUser returns a user's attempts newest-first. Per-question response
// details are stripped from meta to keep list payloads small. after > 0
// paginates by returning only rows with id < after.
func (r *ScoreRepository) ListByUser(ctx context.Context, userID string, limit int, after int64) ([]model.AttemptRecord, error) {
	query := `SELECT id, user_id, paper, score, meta - 'responses', ts
	          FROM scores
	          WHERE user_id = $1 AND ($2::bigint = 0 OR id < $2)
	          ORDER BY id DESC
	          LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Paper, &rec.Score, &meta, &rec.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &rec.Meta); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByID returns one attempt with its full meta, responses included.
func (r *ScoreRepository) GetByID(ctx context.Context, id int64) (*model.AttemptRecord, error) {
	rec := &model.AttemptRecord{}
	var meta []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, paper, score, meta, ts FROM scores WHERE id = $1`, id).
		Scan(&rec.ID, &rec.UserID, &rec.Paper, &rec.Score, &meta, &rec.Timestamp)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &rec.Meta); err != nil {
		return nil, err
	}
	return rec, nil
}
