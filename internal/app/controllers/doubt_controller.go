package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/app/services"
	"github.com/doubtmate/doubtmate/internal/middleware"
)

// DoubtController handles the doubt lifecycle endpoints
type DoubtController struct {
	doubtService *services.DoubtService
	statsService *services.StatsService
}

// NewDoubtController creates a new DoubtController
func NewDoubtController(doubtService *services.DoubtService, statsService *services.StatsService) *DoubtController {
	return &DoubtController{
		doubtService: doubtService,
		statsService: statsService,
	}
}

// CreateDoubt godoc
// @Summary Post a new doubt
// @Tags doubts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateDoubtRequest true "Doubt data"
// @Success 201 {object} dto.APIResponse{data=dto.DoubtResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /doubts [post]
func (c *DoubtController) CreateDoubt(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}

	var req dto.CreateDoubtRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	doubt, err := c.doubtService.CreateDoubt(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(doubt))
}

// ListDoubts godoc
// @Summary List doubts
// @Description Filtered, sorted, paginated doubt listing
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by subject"
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param search query string false "Search in title, description and subject"
// @Param sortBy query string false "Sort column (createdAt|views|priority)" default(createdAt)
// @Param sortOrder query string false "Sort direction (asc|desc)" default(desc)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.DoubtListResponse}
// @Router /doubts [get]
func (c *DoubtController) ListDoubts(ctx *gin.Context) {
	var req dto.ListDoubtsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	list, err := c.doubtService.ListDoubts(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list))
}

// GetDoubt godoc
// @Summary Get one doubt
// @Description Returns the doubt with its responses and votes. Counts a view unless the caller is the author.
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doubt ID"
// @Success 200 {object} dto.APIResponse{data=dto.DoubtResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /doubts/{id} [get]
func (c *DoubtController) GetDoubt(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	doubt, err := c.doubtService.GetDoubt(ctx.Request.Context(), doubtID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(doubt))
}

// DeleteDoubt godoc
// @Summary Delete a doubt
// @Description Removes a doubt with all its responses and votes. Author only.
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doubt ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /doubts/{id} [delete]
func (c *DoubtController) DeleteDoubt(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.doubtService.DeleteDoubt(ctx.Request.Context(), doubtID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Doubt deleted successfully"))
}

// AddResponse godoc
// @Summary Respond to a doubt
// @Tags doubts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doubt ID"
// @Param request body dto.AddResponseRequest true "Response content"
// @Success 201 {object} dto.APIResponse{data=dto.DoubtResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Authors cannot respond to their own doubt"
// @Failure 404 {object} dto.ErrorResponse
// @Router /doubts/{id}/responses [post]
func (c *DoubtController) AddResponse(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.AddResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	doubt, err := c.doubtService.AddResponse(ctx.Request.Context(), doubtID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(doubt))
}

// AcceptResponse godoc
// @Summary Accept a response
// @Description Marks a response as the accepted answer and resolves the doubt. Author only.
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doubt ID"
// @Param responseId path int true "Response ID"
// @Success 200 {object} dto.APIResponse{data=dto.DoubtResponse}
// @Failure 401 {object} dto.ErrorResponse "Only the doubt author can accept"
// @Failure 404 {object} dto.ErrorResponse
// @Router /doubts/{id}/responses/{responseId}/accept [put]
func (c *DoubtController) AcceptResponse(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	responseID, ok := pathID(ctx, "responseId")
	if !ok {
		return
	}

	doubt, err := c.doubtService.AcceptResponse(ctx.Request.Context(), doubtID, responseID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(doubt))
}

// Vote godoc
// @Summary Vote on a doubt
// @Description Casts or switches the caller's vote. A user holds at most one vote per doubt.
// @Tags doubts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doubt ID"
// @Param request body dto.VoteRequest true "Vote direction"
// @Success 200 {object} dto.APIResponse{data=dto.DoubtResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /doubts/{id}/vote [post]
func (c *DoubtController) Vote(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.VoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	doubt, err := c.doubtService.Vote(ctx.Request.Context(), doubtID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(doubt))
}

// ListSubjects godoc
// @Summary List subjects in use
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SubjectListResponse}
// @Router /doubts/subjects [get]
func (c *DoubtController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.doubtService.ListSubjects(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(subjects))
}

// Trending godoc
// @Summary Trending doubts
// @Description Most viewed, most answered and newest doubts
// @Tags doubts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.TrendingResponse}
// @Router /doubts/trending [get]
func (c *DoubtController) Trending(ctx *gin.Context) {
	trending, err := c.statsService.Trending(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(trending))
}

// pathID parses an int64 path parameter, writing a 400 on failure
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid "+name+" parameter")))
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back to a default
func queryInt(ctx *gin.Context, name string, def int) int {
	value, err := strconv.Atoi(ctx.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return value
}

func respondNoUser(ctx *gin.Context) {
	ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User ID not found in context")))
}
