package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

type PaperRepository struct {
	pool *pgxpool.Pool
}

func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// Insert stores a community paper with its validated question set.
func (r *PaperRepository) Insert(ctx context.Context, p *model.Paper) error {
	raw, err := json.Marshal(p.Questions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO papers (id, tenant, name, created_by, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		p.ID, p.Tenant, p.Name, p.CreatedBy, raw)
	return err
}

// List returns community paper metadata newest-first, without question bodies.
func (r *PaperRepository) List(ctx context.Context, tenant string, limit int) ([]model.PaperInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_by, jsonb_array_length(questions), created_at
		 FROM papers
		 WHERE tenant = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.PaperInfo
	for rows.Next() {
		p := model.PaperInfo{Source: "db"}
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedBy, &p.QuestionCount, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// GetByID returns one community paper with its full question set.
func (r *PaperRepository) GetByID(ctx context.Context, id string) (*model.Paper, error) {
	p := &model.Paper{}
	var raw []byte
	var createdAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant, name, created_by, questions, created_at FROM papers WHERE id = $1`, id).
		Scan(&p.ID, &p.Tenant, &p.Name, &p.CreatedBy, &raw, &createdAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if err := json.Unmarshal(raw, &p.Questions); err != nil {
		return nil, err
	}
	return p, nil
}
