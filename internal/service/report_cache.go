package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/observability"
)

// ReportCache stores composed report cards in Redis. A nil client disables caching.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewReportCache constructs the report cache.
func NewReportCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "report_cache").Logger(),
	}
}

func reportCacheKey(studentID uint, semester string) string {
	if semester == "" {
		semester = "_latest"
	}
	return fmt.Sprintf("report:student:%d:semester:%s", studentID, semester)
}

// Get returns a cached report, if any.
func (c *ReportCache) Get(ctx context.Context, studentID uint, semester string) (dto.ReportResponse, bool) {
	if c == nil || c.client == nil {
		return dto.ReportResponse{}, false
	}

	cached, err := c.client.Get(ctx, reportCacheKey(studentID, semester)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to read report cache")
		}
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return dto.ReportResponse{}, false
	}

	var report dto.ReportResponse
	if err := json.Unmarshal([]byte(cached), &report); err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("discarding unreadable report cache entry")
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return dto.ReportResponse{}, false
	}

	observability.ReportCacheLookups().WithLabelValues("hit").Inc()
	return report, true
}

// Set stores a report for the requested semester label.
func (c *ReportCache) Set(ctx context.Context, studentID uint, semester string, report dto.ReportResponse) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode report")
		return
	}
	if err := c.client.Set(ctx, reportCacheKey(studentID, semester), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to store report cache")
	}
}

// InvalidateStudent drops every cached report of the student.
func (c *ReportCache) InvalidateStudent(ctx context.Context, studentID uint) error {
	return c.deleteMatching(ctx, fmt.Sprintf("report:student:%d:*", studentID))
}

// InvalidateAll drops every cached report, used when registry data shown on all reports changes.
func (c *ReportCache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, "report:student:*")
}

func (c *ReportCache) deleteMatching(ctx context.Context, pattern string) error {
	if c == nil || c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
