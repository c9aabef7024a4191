package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const statsCacheTTL = time.Minute

// UserStats summarizes one citizen's activity.
type UserStats struct {
	MemberSince time.Time `json:"member_since"`
	TotalIssues int64     `json:"total_issues"`
}

// StatsService answers the per-user stats query, cached briefly in Redis.
type StatsService struct {
	users      repository.UserRepository
	complaints repository.ComplaintRepository
	cache      *redis.Client
	logger     *zap.Logger
}

// NewStatsService constructs the service. The cache client may be nil.
func NewStatsService(users repository.UserRepository, complaints repository.ComplaintRepository, cache *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{users: users, complaints: complaints, cache: cache, logger: logger}
}

// UserStats returns join date and complaint count for a citizen.
func (s *StatsService) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}

	total, err := s.complaints.Count(ctx, repository.ComplaintFilter{OwnerID: &userID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &UserStats{MemberSince: user.CreatedAt, TotalIssues: total}
	s.toCache(ctx, userID, stats)
	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context, userID string) *UserStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var stats UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, userID string, stats *UserStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey(userID), raw, statsCacheTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}

func statsCacheKey(userID string) string {
	return "user_stats:" + userID
}
