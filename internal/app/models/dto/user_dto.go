package dto

import (
	"time"

	"github.com/doubtmate/doubtmate/internal/app/models"
)

// --- Request DTOs ---

// RegisterRequest represents data for creating a new account
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"John Doe"`
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"secret123"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// ReviewRequest represents a review submitted for another user
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5" example:"5"`
	Comment string `json:"comment" example:"Very helpful explanation"`
}

// OnlineStatusRequest updates the caller's presence flag
type OnlineStatusRequest struct {
	IsOnline *bool `json:"isOnline" binding:"required"`
}

// --- Response DTOs ---

// TokenResponse is returned on successful register/login
type TokenResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int          `json:"expiresIn" example:"3600"`
	User        UserResponse `json:"user"`
}

// UserSummary is the compact user representation embedded in doubts,
// responses and messages
type UserSummary struct {
	ID     int64   `json:"id" example:"1"`
	Name   string  `json:"name" example:"John Doe"`
	Rating float64 `json:"rating" example:"4.8"`
}

// UserResponse is the full public profile of a user
type UserResponse struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Rating           float64         `json:"rating"`
	TotalReviews     int             `json:"totalReviews"`
	DoubtsAsked      int             `json:"doubtsAsked"`
	DoubtsSolved     int             `json:"doubtsSolved"`
	TotalViews       int             `json:"totalViews"`
	HelpfulResponses int             `json:"helpfulResponses"`
	IsOnline         bool            `json:"isOnline"`
	LastSeen         time.Time       `json:"lastSeen"`
	Badges           []BadgeResponse `json:"badges"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// BadgeResponse represents an earned achievement badge
type BadgeResponse struct {
	Name        string    `json:"name" example:"Helper"`
	Description string    `json:"description" example:"Solved 10+ doubts"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// ToUserSummary maps a user model to its compact representation
func ToUserSummary(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:     user.ID,
		Name:   user.Name,
		Rating: user.Rating,
	}
}

// ToUserResponse maps a user model to its full public profile
func ToUserResponse(user *models.User) UserResponse {
	badges := make([]BadgeResponse, 0, len(user.Badges))
	for _, b := range user.Badges {
		badges = append(badges, BadgeResponse{
			Name:        b.Name,
			Description: b.Description,
			EarnedAt:    b.EarnedAt,
		})
	}
	return UserResponse{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Rating:           user.Rating,
		TotalReviews:     user.TotalReviews,
		DoubtsAsked:      user.DoubtsAsked,
		DoubtsSolved:     user.DoubtsSolved,
		TotalViews:       user.TotalViews,
		HelpfulResponses: user.HelpfulResponses,
		IsOnline:         user.IsOnline,
		LastSeen:         user.LastSeen,
		Badges:           badges,
		CreatedAt:        user.CreatedAt,
	}
}
