package services

import (
	stdcontext "context"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/dto"
)

// TrendingService keeps a rolling tally of search terms in a Redis sorted
// set, one set per UTC day. Losing Redis only loses the trending widget.
type TrendingService struct {
	context.DefaultService

	redisSvc *RedisService
}

const TRENDING_SVC = "trending_svc"

const trendingKeyPrefix = "trending:searches:"
const trendingTTL = 48 * time.Hour

func (svc TrendingService) Id() string {
	return TRENDING_SVC
}

func (svc *TrendingService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *TrendingService) Shutdown() {
}

func trendingKey(day time.Time) string {
	return trendingKeyPrefix + day.UTC().Format("2006-01-02")
}

// RecordSearch bumps the counter for a normalized search term.
func (svc *TrendingService) RecordSearch(ctx stdcontext.Context, term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}

	key := trendingKey(time.Now())
	if err := svc.redisSvc.ZIncrBy(ctx, key, 1, term); err != nil {
		log.WithError(err).Debug("Failed to record trending search")
		return
	}
	_ = svc.redisSvc.Expire(ctx, key, trendingTTL)
}

// Top returns today's most searched terms, highest first.
func (svc *TrendingService) Top(ctx stdcontext.Context, limit int) (*dto.TrendingResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	day := time.Now().UTC()
	entries, err := svc.redisSvc.ZRevRangeWithScores(ctx, trendingKey(day), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	resp := &dto.TrendingResponse{
		Window:  day.Format("2006-01-02"),
		Entries: make([]dto.TrendingEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		term, ok := entry.Member.(string)
		if !ok {
			continue
		}
		resp.Entries = append(resp.Entries, dto.TrendingEntry{Query: term, Score: entry.Score})
	}
	return resp, nil
}
