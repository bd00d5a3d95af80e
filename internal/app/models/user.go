package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID               int64     `json:"id" db:"id" example:"1"`                                     // Unique identifier for the user
	Email            string    `json:"email" db:"email" example:"user@example.com"`                // User's email address
	Password         string    `json:"-" db:"password"`                                            // User's hashed password (excluded from JSON)
	Name             string    `json:"name" db:"name" example:"John Doe"`                          // User's display name
	Rating           float64   `json:"rating" db:"rating" example:"4.8"`                           // Average review rating, 0-5, starts at 5.0
	TotalReviews     int       `json:"totalReviews" db:"total_reviews" example:"12"`               // Number of reviews received
	DoubtsAsked      int       `json:"doubtsAsked" db:"doubts_asked" example:"3"`                  // Doubts posted by this user
	DoubtsSolved     int       `json:"doubtsSolved" db:"doubts_solved" example:"17"`               // Responses by this user that were accepted
	TotalViews       int       `json:"totalViews" db:"total_views" example:"240"`                  // Views accumulated across the user's doubts
	HelpfulResponses int       `json:"helpfulResponses" db:"helpful_responses" example:"5"`        // Responses flagged helpful
	IsOnline         bool      `json:"isOnline" db:"is_online" example:"true"`                     // Presence flag
	LastSeen         time.Time `json:"lastSeen" db:"last_seen" example:"2024-04-20T18:00:00Z"`     // Last presence update
	LastActive       time.Time `json:"lastActive" db:"last_active" example:"2024-04-20T18:00:00Z"` // Last platform activity
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`

	// Related entities
	Badges []Badge `json:"badges,omitempty"`
}

// Badge is a named achievement awarded at most once per user.
// The (user_id, name) pair is unique; badges are never removed.
type Badge struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name" example:"Helper"`
	Description string    `json:"description" db:"description" example:"Solved 10+ doubts"`
	EarnedAt    time.Time `json:"earnedAt" db:"earned_at"`
}

// Badge names awarded by the reputation engine
const (
	BadgeHelper       = "Helper"
	BadgeExpertHelper = "Expert Helper"
	BadgeTopRated     = "Top Rated"
)
