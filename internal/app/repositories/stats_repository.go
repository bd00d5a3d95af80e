package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doubtmate/doubtmate/internal/app/models/dto"
)

// StatsRepository runs the read-only aggregation queries behind trending,
// leaderboards and activity statistics
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns platform-wide totals for the overview endpoint
func (r *StatsRepository) Counts(ctx context.Context) (totalUsers, onlineUsers, totalDoubts, totalResponses int64, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_online = TRUE),
			(SELECT COUNT(*) FROM doubts),
			(SELECT COUNT(*) FROM doubt_responses)
	`
	err = r.db.QueryRow(ctx, query).Scan(&totalUsers, &onlineUsers, &totalDoubts, &totalResponses)
	if err != nil {
		err = fmt.Errorf("error counting platform totals: %w", err)
	}
	return
}

// leaderboard orderings per category, with their tie-breaks
var leaderboardOrder = map[string][]string{
	"solved":  {"doubts_solved DESC", "rating DESC"},
	"rating":  {"rating DESC", "total_reviews DESC"},
	"active":  {"doubts_asked DESC", "last_active DESC"},
	"helpful": {"helpful_responses DESC", "rating DESC"},
}

// LeaderboardCategories lists the supported leaderboard categories
func LeaderboardCategories() []string {
	return []string{"solved", "rating", "active", "helpful"}
}

// Leaderboard returns the top users for a category. Unknown categories
// fall back to "solved".
func (r *StatsRepository) Leaderboard(ctx context.Context, category string, limit int) ([]dto.LeaderboardEntry, error) {
	order, ok := leaderboardOrder[category]
	if !ok {
		order = leaderboardOrder["solved"]
	}

	builder := squirrel.Select(
		"id", "name", "rating", "total_reviews",
		"doubts_asked", "doubts_solved", "helpful_responses",
	).
		From("users").
		OrderBy(order...).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	return r.queryEntries(ctx, builder)
}

// TopRated returns highly rated users with enough reviews to matter
func (r *StatsRepository) TopRated(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	builder := squirrel.Select(
		"id", "name", "rating", "total_reviews",
		"doubts_asked", "doubts_solved", "helpful_responses",
	).
		From("users").
		Where("rating >= ?", 4.5).
		Where("total_reviews >= ?", 5).
		OrderBy("rating DESC", "doubts_solved DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	return r.queryEntries(ctx, builder)
}

// TopHelpers returns the users with the most accepted responses
func (r *StatsRepository) TopHelpers(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	builder := squirrel.Select(
		"id", "name", "rating", "total_reviews",
		"doubts_asked", "doubts_solved", "helpful_responses",
	).
		From("users").
		Where("doubts_solved >= ?", 1).
		OrderBy("doubts_solved DESC", "rating DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	return r.queryEntries(ctx, builder)
}

func (r *StatsRepository) queryEntries(ctx context.Context, builder squirrel.SelectBuilder) ([]dto.LeaderboardEntry, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building leaderboard SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []dto.LeaderboardEntry{}
	for rows.Next() {
		var e dto.LeaderboardEntry
		err := rows.Scan(
			&e.ID, &e.Name, &e.Rating, &e.TotalReviews,
			&e.DoubtsAsked, &e.DoubtsSolved, &e.HelpfulResponses,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Activity buckets doubt creation and resolution counts by time interval
// (day, week or month) since the given start time
func (r *StatsRepository) Activity(ctx context.Context, interval string, since time.Time) ([]dto.ActivityBucket, error) {
	switch interval {
	case "day", "week", "month":
	default:
		interval = "week"
	}

	// interval is validated above; date_trunc does not accept a placeholder
	// for its field argument in a prepared statement on all versions, so it
	// is interpolated from the whitelist
	query := fmt.Sprintf(`
		SELECT
			date_trunc('%s', created_at) AS bucket,
			COUNT(*) AS doubts,
			COUNT(solved_at) AS solved
		FROM doubts
		WHERE created_at >= $1
		GROUP BY bucket
		ORDER BY bucket ASC`, interval)

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying activity: %w", err)
	}
	defer rows.Close()

	buckets := []dto.ActivityBucket{}
	for rows.Next() {
		var b dto.ActivityBucket
		if err := rows.Scan(&b.Bucket, &b.Doubts, &b.Solved); err != nil {
			return nil, fmt.Errorf("error scanning activity bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
