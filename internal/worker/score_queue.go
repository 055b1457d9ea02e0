package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// RedisScoreQueue is the producing side of the score persistence queue.
// The attempt service enqueues finished attempts here; the flush worker
// drains them into Postgres.
type RedisScoreQueue struct {
	rdb *redis.Client
}

func NewRedisScoreQueue(rdb *redis.Client) *RedisScoreQueue {
	return &RedisScoreQueue{rdb: rdb}
}

func (q *RedisScoreQueue) Enqueue(ctx context.Context, rec *model.AttemptRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw).Err()
}
