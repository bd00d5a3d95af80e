package dto

import "time"

// TrendingResponse groups the trending doubt lists
type TrendingResponse struct {
	MostViewed    []DoubtResponse `json:"mostViewed"`
	MostResponses []DoubtResponse `json:"mostResponses"`
	RecentDoubts  []DoubtResponse `json:"recentDoubts"`
}

// LeaderboardEntry is one row of a leaderboard
type LeaderboardEntry struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Rating           float64 `json:"rating"`
	TotalReviews     int     `json:"totalReviews"`
	DoubtsAsked      int     `json:"doubtsAsked"`
	DoubtsSolved     int     `json:"doubtsSolved"`
	HelpfulResponses int     `json:"helpfulResponses"`
}

// LeaderboardResponse is a titled ranking of users for one category
type LeaderboardResponse struct {
	Title       string             `json:"title" example:"Top Problem Solvers"`
	Category    string             `json:"category" example:"solved"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// OverviewResponse summarizes platform-wide statistics
type OverviewResponse struct {
	TotalUsers     int64              `json:"totalUsers"`
	OnlineUsers    int64              `json:"onlineUsers"`
	TotalDoubts    int64              `json:"totalDoubts"`
	TotalResponses int64              `json:"totalResponses"`
	TopRatedUsers  []LeaderboardEntry `json:"topRatedUsers"`
	TopHelpers     []LeaderboardEntry `json:"topHelpers"`
}

// ActivityBucket is one time bucket of doubt activity
type ActivityBucket struct {
	Bucket time.Time `json:"bucket"`
	Doubts int64     `json:"doubts"`
	Solved int64     `json:"solved"`
}

// ActivityResponse is a time-bucketed activity series
type ActivityResponse struct {
	Interval string           `json:"interval" example:"week"`
	Buckets  []ActivityBucket `json:"buckets"`
}

// OnlineUsersResponse lists users currently marked online
type OnlineUsersResponse struct {
	OnlineUsers []UserSummary `json:"onlineUsers"`
}
