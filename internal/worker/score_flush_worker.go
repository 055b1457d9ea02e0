package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoreFlushWorker drains the persist queue into the scores table.
// Inserts are batched; a failed batch falls back to per-record inserts
// and requeues whatever still fails, so a database outage delays records
// instead of losing them.
type ScoreFlushWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewScoreFlushWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ScoreFlushWorker {
	return &ScoreFlushWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "score_flush_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoreFlushWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoreFlushWorker started")

	batch := make([]*model.AttemptRecord, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.PersistScoresQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var rec model.AttemptRecord
			if err := json.Unmarshal([]byte(item[1]), &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &rec)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ScoreFlushWorker) flushSafe(ctx context.Context, batch []*model.AttemptRecord) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertScores(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk score insert failed, using fallback")

		for _, rec := range batch {
			if err := w.persistSingle(ctx, rec); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(rec)
				w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST
// ----------------------------------------------------------------

func (w *ScoreFlushWorker) bulkInsertScores(ctx context.Context, batch []*model.AttemptRecord) error {
	n := len(batch)

	userIDs := make([]string, 0, n)
	papers := make([]string, 0, n)
	scores := make([]float64, 0, n)
	metas := make([]string, 0, n)
	timestamps := make([]time.Time, 0, n)

	for _, rec := range batch {
		meta, err := json.Marshal(rec.Meta)
		if err != nil {
			return err
		}
		userIDs = append(userIDs, rec.UserID)
		papers = append(papers, rec.Paper)
		scores = append(scores, rec.Score)
		metas = append(metas, string(meta))
		timestamps = append(timestamps, rec.Timestamp)
	}

	query := `
		INSERT INTO scores (user_id, paper, score, meta, ts)
		SELECT u.user_id, u.paper, u.score, u.meta, u.ts
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::float8[],
			$4::jsonb[],
			$5::timestamptz[]
		) AS u (user_id, paper, score, meta, ts)
	`

	_, err := w.pool.Exec(ctx, query, userIDs, papers, scores, metas, timestamps)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *ScoreFlushWorker) persistSingle(ctx context.Context, rec *model.AttemptRecord) error {
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO scores (user_id, paper, score, meta, ts)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.UserID, rec.Paper, rec.Score, meta, rec.Timestamp,
	)

	return err
}
