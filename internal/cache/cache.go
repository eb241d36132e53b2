package cache

import (
	"context"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	reportKeyPrefix  = "interview:report:"
	DefaultReportTTL = 24 * time.Hour
)

func ReportKey(sessionID string) string { return reportKeyPrefix + sessionID }

// ReportCache keeps finished evaluation reports readable after the live
// session has been evicted.
type ReportCache struct {
	c   Cache
	ttl time.Duration
}

func NewReportCache(c Cache, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{c: c, ttl: ttl}
}

func (r *ReportCache) Put(ctx context.Context, sessionID string, entry models.CachedReport) error {
	return r.c.SetJSON(ctx, ReportKey(sessionID), entry, r.ttl)
}

// Get returns the cached report. An entry without a report is dropped and
// reported as a miss.
func (r *ReportCache) Get(ctx context.Context, sessionID string) (*models.CachedReport, bool, error) {
	var out models.CachedReport
	hit, err := r.c.GetJSON(ctx, ReportKey(sessionID), &out)
	if err != nil || !hit {
		return nil, false, err
	}
	if out.Report == nil {
		return nil, false, r.forget(ctx, sessionID)
	}
	return &out, true, nil
}

func (r *ReportCache) forget(ctx context.Context, sessionID string) error {
	return r.c.Del(ctx, ReportKey(sessionID))
}
