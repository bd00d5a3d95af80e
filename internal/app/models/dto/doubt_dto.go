package dto

import (
	"time"

	"github.com/doubtmate/doubtmate/internal/app/models"
)

// --- Request DTOs ---

// CreateDoubtRequest represents data for posting a new doubt
type CreateDoubtRequest struct {
	Subject     string   `json:"subject" binding:"required" example:"Mathematics"`
	Title       string   `json:"title" binding:"required" example:"Need help with limits"`
	Description string   `json:"description" binding:"required"`
	Priority    string   `json:"priority,omitempty" example:"medium"`
	Tags        []string `json:"tags,omitempty"`
}

// ListDoubtsRequest represents filter and paging parameters for listing doubts
type ListDoubtsRequest struct {
	Subject   string `form:"subject"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy,default=createdAt"`
	SortOrder string `form:"sortOrder,default=desc"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"pageSize,default=10"`
}

// AddResponseRequest represents a new response to a doubt
type AddResponseRequest struct {
	Content string `json:"content" binding:"required"`
}

// VoteRequest represents an upvote/downvote on a doubt
type VoteRequest struct {
	VoteType string `json:"voteType" binding:"required,oneof=upvote downvote" example:"upvote"`
}

// --- Response DTOs ---

// ResponseEntry represents one response embedded in a doubt
type ResponseEntry struct {
	ID         int64        `json:"id"`
	Content    string       `json:"content"`
	IsAccepted bool         `json:"isAccepted"`
	AcceptedAt *time.Time   `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	User       *UserSummary `json:"user,omitempty"`
}

// DoubtResponse represents a doubt with its embedded responses and votes
type DoubtResponse struct {
	ID            int64           `json:"id"`
	Subject       string          `json:"subject"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Status        string          `json:"status"`
	Priority      string          `json:"priority"`
	Tags          []string        `json:"tags"`
	Views         int             `json:"views"`
	Upvotes       []int64         `json:"upvotes"`
	Downvotes     []int64         `json:"downvotes"`
	VoteScore     int             `json:"voteScore"`
	ResponseCount int             `json:"responseCount"`
	Responses     []ResponseEntry `json:"responses"`
	SolvedBy      *int64          `json:"solvedBy,omitempty"`
	SolvedAt      *time.Time      `json:"solvedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Author        *UserSummary    `json:"author,omitempty"`
}

// DoubtListResponse is a page of doubts with pagination metadata
type DoubtListResponse struct {
	Doubts     []DoubtResponse `json:"doubts"`
	Pagination PaginationInfo  `json:"pagination"`
}

// SubjectListResponse lists the distinct subjects in use
type SubjectListResponse struct {
	Subjects []string `json:"subjects"`
}

// ToDoubtResponse maps a doubt model and its sub-state to the API shape
func ToDoubtResponse(doubt *models.Doubt) DoubtResponse {
	responses := make([]ResponseEntry, 0, len(doubt.Responses))
	for i := range doubt.Responses {
		r := &doubt.Responses[i]
		responses = append(responses, ResponseEntry{
			ID:         r.ID,
			Content:    r.Content,
			IsAccepted: r.IsAccepted,
			AcceptedAt: r.AcceptedAt,
			CreatedAt:  r.CreatedAt,
			User:       ToUserSummary(r.User),
		})
	}

	tags := doubt.Tags
	if tags == nil {
		tags = []string{}
	}
	upvotes := doubt.Upvotes
	if upvotes == nil {
		upvotes = []int64{}
	}
	downvotes := doubt.Downvotes
	if downvotes == nil {
		downvotes = []int64{}
	}

	responseCount := doubt.ResponseCount
	if len(doubt.Responses) > 0 {
		responseCount = len(doubt.Responses)
	}

	return DoubtResponse{
		ID:            doubt.ID,
		Subject:       doubt.Subject,
		Title:         doubt.Title,
		Description:   doubt.Description,
		Status:        string(doubt.Status),
		Priority:      string(doubt.Priority),
		Tags:          tags,
		Views:         doubt.Views,
		Upvotes:       upvotes,
		Downvotes:     downvotes,
		VoteScore:     doubt.VoteScore(),
		ResponseCount: responseCount,
		Responses:     responses,
		SolvedBy:      doubt.SolvedByID,
		SolvedAt:      doubt.SolvedAt,
		CreatedAt:     doubt.CreatedAt,
		UpdatedAt:     doubt.UpdatedAt,
		Author:        ToUserSummary(doubt.Author),
	}
}
