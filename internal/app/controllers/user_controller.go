package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/app/services"
	"github.com/doubtmate/doubtmate/internal/middleware"
)

// UserController handles profiles, reviews, presence and statistics
type UserController struct {
	reputationService *services.ReputationService
	statsService      *services.StatsService
}

// NewUserController creates a new UserController
func NewUserController(reputationService *services.ReputationService, statsService *services.StatsService) *UserController {
	return &UserController{
		reputationService: reputationService,
		statsService:      statsService,
	}
}

// GetProfile godoc
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	profile, err := c.reputationService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// AddReview godoc
// @Summary Review a user
// @Description Folds a 1-5 rating into the target's running average. Self-reviews are rejected.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID to review"
// @Param request body dto.ReviewRequest true "Review data"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Self-review"
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id}/review [post]
func (c *UserController) AddReview(ctx *gin.Context) {
	reviewerID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	targetID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	profile, err := c.reputationService.AddReview(ctx.Request.Context(), targetID, reviewerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// SetOnlineStatus godoc
// @Summary Update the caller's presence
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OnlineStatusRequest true "Presence flag"
// @Success 200 {object} dto.APIResponse
// @Router /users/online-status [put]
func (c *UserController) SetOnlineStatus(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}

	var req dto.OnlineStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	if err := c.reputationService.SetOnlineStatus(ctx.Request.Context(), userID, *req.IsOnline); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Online status updated"))
}

// GetOnlineUsers godoc
// @Summary List online users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.OnlineUsersResponse}
// @Router /users/online [get]
func (c *UserController) GetOnlineUsers(ctx *gin.Context) {
	online, err := c.statsService.OnlineUsers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(online))
}

// GetLeaderboard godoc
// @Summary Get a leaderboard
// @Description Top users by solved, rating, active or helpful
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param category query string false "Leaderboard category (solved|rating|active|helpful)" default(solved)
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.LeaderboardResponse}
// @Router /users/leaderboard [get]
func (c *UserController) GetLeaderboard(ctx *gin.Context) {
	category := ctx.DefaultQuery("category", "solved")
	limit := queryInt(ctx, "limit", 10)

	leaderboard, err := c.statsService.Leaderboard(ctx.Request.Context(), category, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(leaderboard))
}

// GetOverview godoc
// @Summary Platform statistics overview
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.OverviewResponse}
// @Router /users/stats/overview [get]
func (c *UserController) GetOverview(ctx *gin.Context) {
	overview, err := c.statsService.Overview(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(overview))
}

// GetActivity godoc
// @Summary Doubt activity over time
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param interval query string false "Bucket interval (day|week|month)" default(week)
// @Success 200 {object} dto.APIResponse{data=dto.ActivityResponse}
// @Router /users/stats/activity [get]
func (c *UserController) GetActivity(ctx *gin.Context) {
	interval := ctx.DefaultQuery("interval", "week")

	activity, err := c.statsService.Activity(ctx.Request.Context(), interval)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(activity))
}
