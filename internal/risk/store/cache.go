// Package store holds the Redis score cache and the decision sinks: the
// Postgres audit log, the Elasticsearch explanation archive and SNS alerts.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

const scoreKeyPrefix = "risk:score:"

// ScoreCache memoizes scores in Redis. Keys carry the caller's scope (the
// loaded scorer's capability and identity) and a hash of the feature vector,
// so entries written by one model are never read by another. Entries expire
// after ttl.
type ScoreCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewScoreCache(client redis.Cmdable, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl}
}

type cachedScore struct {
	Score      float64           `json:"score"`
	Capability models.Capability `json:"capability"`
}

func (c *ScoreCache) Get(ctx context.Context, scope string, vec models.FeatureVector) (models.ScoreResult, bool, error) {
	data, err := c.client.Get(ctx, ScoreKey(scope, vec)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return models.ScoreResult{}, false, nil
	}
	if err != nil {
		return models.ScoreResult{}, false, errors.NewSinkError(errors.ErrCodeCacheFailed, err)
	}

	var cached cachedScore
	if err := json.Unmarshal(data, &cached); err != nil {
		return models.ScoreResult{}, false, errors.NewSinkError(errors.ErrCodeCacheFailed, err)
	}
	return models.ScoreResult{Score: cached.Score, Capability: cached.Capability}, true, nil
}

func (c *ScoreCache) Set(ctx context.Context, scope string, vec models.FeatureVector, result models.ScoreResult) error {
	data, err := json.Marshal(cachedScore{Score: result.Score, Capability: result.Capability})
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeCacheFailed, err)
	}
	if err := c.client.Set(ctx, ScoreKey(scope, vec), data, c.ttl).Err(); err != nil {
		return errors.NewSinkError(errors.ErrCodeCacheFailed, err)
	}
	return nil
}

// ScoreKey is the cache key for vec under scope: the scope followed by a
// SHA-256 over the IEEE-754 bits of every feature in order.
func ScoreKey(scope string, vec models.FeatureVector) string {
	buf := make([]byte, 8*models.FeatureCount)
	for i, v := range vec {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	sum := sha256.Sum256(buf)
	return scoreKeyPrefix + scope + ":" + hex.EncodeToString(sum[:])
}
