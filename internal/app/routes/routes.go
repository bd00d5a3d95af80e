package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doubtmate/doubtmate/internal/app/controllers"
	"github.com/doubtmate/doubtmate/internal/middleware"
	"github.com/doubtmate/doubtmate/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	doubtController *controllers.DoubtController,
	chatController *controllers.ChatController,
	userController *controllers.UserController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// --- Public auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		doubts := authenticated.Group("/doubts")
		{
			doubts.POST("", doubtController.CreateDoubt)
			doubts.GET("", doubtController.ListDoubts)
			doubts.GET("/trending", doubtController.Trending)
			doubts.GET("/subjects", doubtController.ListSubjects)
			doubts.GET("/:id", doubtController.GetDoubt)
			doubts.DELETE("/:id", doubtController.DeleteDoubt)
			doubts.POST("/:id/responses", doubtController.AddResponse)
			doubts.PUT("/:id/responses/:responseId/accept", doubtController.AcceptResponse)
			doubts.POST("/:id/vote", doubtController.Vote)
		}

		chat := authenticated.Group("/chat")
		{
			chat.POST("/send", chatController.SendMessage)
			chat.GET("/unread/count", chatController.CountUnread)
			chat.GET("/:doubtId/:otherUserId", chatController.GetConversation)
			chat.PUT("/:messageId/read", chatController.MarkRead)
		}

		users := authenticated.Group("/users")
		{
			users.GET("/leaderboard", userController.GetLeaderboard)
			users.GET("/online", userController.GetOnlineUsers)
			users.PUT("/online-status", userController.SetOnlineStatus)
			users.GET("/stats/overview", userController.GetOverview)
			users.GET("/stats/activity", userController.GetActivity)
			users.GET("/:id", userController.GetProfile)
			users.POST("/:id/review", userController.AddReview)
		}

		// Realtime relay upgrade
		authenticated.GET("/ws", wsHandler.HandleConnection)
	}
}
