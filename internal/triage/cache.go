package triage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AssessmentCache memoizes classifier output in Redis. The classifier is
// pure, so identical symptom text always maps to the same assessment.
// A nil cache is a no-op, which keeps Redis optional.
type AssessmentCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewAssessmentCache wraps a Redis client with the given TTL.
func NewAssessmentCache(client *redis.Client, ttl time.Duration) *AssessmentCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AssessmentCache{redis: client, ttl: ttl}
}

func (c *AssessmentCache) key(symptoms string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(symptoms)), " ")
	sum := sha256.Sum256([]byte(norm))
	return "triage:assessment:" + hex.EncodeToString(sum[:])
}

// Get returns a cached assessment, or nil on miss or any Redis error.
func (c *AssessmentCache) Get(ctx context.Context, symptoms string) *Assessment {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, c.key(symptoms)).Bytes()
	if err != nil {
		return nil
	}
	var a Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil
	}
	return &a
}

// Put stores an assessment. Cache failures are reported but callers are
// expected to treat them as advisory.
func (c *AssessmentCache) Put(ctx context.Context, symptoms string, a *Assessment) error {
	if c == nil || c.redis == nil || a == nil {
		return nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("triage: encode cached assessment: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(symptoms), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("triage: cache write: %w", err)
	}
	return nil
}
