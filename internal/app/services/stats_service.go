package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
)

const (
	trendingLimit       = 5
	maxLeaderboardLimit = 50
	onlineUsersLimit    = 50
)

var leaderboardTitles = map[string]string{
	"solved":  "Top Problem Solvers",
	"rating":  "Highest Rated",
	"active":  "Most Active",
	"helpful": "Most Helpful",
}

// StatsService serves the read-only aggregate views: trending doubts,
// leaderboards, platform overview and activity series
type StatsService struct {
	stats  StatsStore
	doubts DoubtStore
	users  UserStore
	logger zerolog.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(stats StatsStore, doubts DoubtStore, users UserStore, logger zerolog.Logger) *StatsService {
	return &StatsService{
		stats:  stats,
		doubts: doubts,
		users:  users,
		logger: logger.With().Str("service", "stats").Logger(),
	}
}

// Trending returns the most viewed, most answered and newest doubts
func (s *StatsService) Trending(ctx context.Context) (*dto.TrendingResponse, error) {
	mostViewed, err := s.doubts.MostViewed(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}
	mostAnswered, err := s.doubts.MostAnswered(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.doubts.Recent(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}

	return &dto.TrendingResponse{
		MostViewed:    toDoubtResponses(mostViewed),
		MostResponses: toDoubtResponses(mostAnswered),
		RecentDoubts:  toDoubtResponses(recent),
	}, nil
}

// Leaderboard returns the top users for a category. Unknown categories
// fall back to the solved ranking.
func (s *StatsService) Leaderboard(ctx context.Context, category string, limit int) (*dto.LeaderboardResponse, error) {
	if _, ok := leaderboardTitles[category]; !ok {
		category = "solved"
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.stats.Leaderboard(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []dto.LeaderboardEntry{}
	}
	return &dto.LeaderboardResponse{
		Title:       leaderboardTitles[category],
		Category:    category,
		Leaderboard: entries,
	}, nil
}

// Overview returns platform-wide totals together with the standout users
func (s *StatsService) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	totalUsers, onlineUsers, totalDoubts, totalResponses, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, err
	}

	topRated, err := s.stats.TopRated(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}
	topHelpers, err := s.stats.TopHelpers(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}
	if topRated == nil {
		topRated = []dto.LeaderboardEntry{}
	}
	if topHelpers == nil {
		topHelpers = []dto.LeaderboardEntry{}
	}

	return &dto.OverviewResponse{
		TotalUsers:     totalUsers,
		OnlineUsers:    onlineUsers,
		TotalDoubts:    totalDoubts,
		TotalResponses: totalResponses,
		TopRatedUsers:  topRated,
		TopHelpers:     topHelpers,
	}, nil
}

// Activity returns doubt activity bucketed by day, week or month. The
// lookback window scales with the interval.
func (s *StatsService) Activity(ctx context.Context, interval string) (*dto.ActivityResponse, error) {
	var since time.Time
	now := time.Now()
	switch interval {
	case "day":
		since = now.AddDate(0, 0, -30)
	case "month":
		since = now.AddDate(-1, 0, 0)
	default:
		interval = "week"
		since = now.AddDate(0, 0, -12*7)
	}

	buckets, err := s.stats.Activity(ctx, interval, since)
	if err != nil {
		return nil, err
	}
	if buckets == nil {
		buckets = []dto.ActivityBucket{}
	}
	return &dto.ActivityResponse{Interval: interval, Buckets: buckets}, nil
}

// OnlineUsers lists the users currently marked online
func (s *StatsService) OnlineUsers(ctx context.Context) (*dto.OnlineUsersResponse, error) {
	users, err := s.users.OnlineUsers(ctx, onlineUsersLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, *dto.ToUserSummary(u))
	}
	return &dto.OnlineUsersResponse{OnlineUsers: summaries}, nil
}

func toDoubtResponses(doubts []*models.Doubt) []dto.DoubtResponse {
	items := make([]dto.DoubtResponse, 0, len(doubts))
	for _, d := range doubts {
		items = append(items, dto.ToDoubtResponse(d))
	}
	return items
}
