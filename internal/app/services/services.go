package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/app/repositories"
	"github.com/doubtmate/doubtmate/internal/pkg/auth"
	"github.com/doubtmate/doubtmate/internal/pkg/websocket"
)

// Storage interfaces consumed by the services. The pgx-backed
// repositories satisfy them; tests substitute in-memory fakes.

// UserStore persists users, their counters and badges
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	IncrementDoubtsAsked(ctx context.Context, userID int64) error
	IncrementDoubtsSolved(ctx context.Context, userID int64) error
	AddViews(ctx context.Context, userID int64, views int) error
	ApplyReview(ctx context.Context, userID int64, rating int) (*models.User, error)
	AwardBadge(ctx context.Context, userID int64, name, description string) (bool, error)
	SetOnlineStatus(ctx context.Context, userID int64, isOnline bool) error
	OnlineUsers(ctx context.Context, limit int) ([]*models.User, error)
}

// DoubtStore persists doubts with their embedded responses and votes
type DoubtStore interface {
	Create(ctx context.Context, doubt *models.Doubt) error
	GetByID(ctx context.Context, id int64) (*models.Doubt, error)
	List(ctx context.Context, filter *dto.ListDoubtsRequest, offset uint64, limit int) ([]*models.Doubt, int64, error)
	MostViewed(ctx context.Context, limit int) ([]*models.Doubt, error)
	MostAnswered(ctx context.Context, limit int) ([]*models.Doubt, error)
	Recent(ctx context.Context, limit int) ([]*models.Doubt, error)
	AddResponse(ctx context.Context, doubtID, userID int64, content string) (*models.Response, error)
	AcceptResponse(ctx context.Context, doubtID, responseID int64, acceptedAt time.Time) (*models.Response, error)
	Vote(ctx context.Context, doubtID, userID int64, voteType models.VoteType) error
	IncrementViews(ctx context.Context, doubtID int64) error
	Delete(ctx context.Context, doubtID int64) error
	Subjects(ctx context.Context) ([]string, error)
}

// MessageStore persists chat messages
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	Conversation(ctx context.Context, doubtID, userA, userB int64, limit int) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, doubtID, readerID, otherID int64) error
	MarkRead(ctx context.Context, messageID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// StatsStore runs the aggregation queries
type StatsStore interface {
	Counts(ctx context.Context) (totalUsers, onlineUsers, totalDoubts, totalResponses int64, err error)
	Leaderboard(ctx context.Context, category string, limit int) ([]dto.LeaderboardEntry, error)
	TopRated(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	TopHelpers(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	Activity(ctx context.Context, interval string, since time.Time) ([]dto.ActivityBucket, error)
}

// RoomBroadcaster pushes server-originated events to the realtime relay.
// Delivery is best effort and independent of persistence.
type RoomBroadcaster interface {
	BroadcastToRoom(roomID string, payload interface{})
}

// Services bundles all service instances for dependency injection
type Services struct {
	Auth       *AuthService
	Doubt      *DoubtService
	Chat       *ChatService
	Reputation *ReputationService
	Stats      *StatsService
}

// NewServices wires the services onto the repositories, the relay hub and
// the JWT service
func NewServices(repos *repositories.Repositories, hub *websocket.Hub, jwtService *auth.JWTService, logger zerolog.Logger) *Services {
	reputation := NewReputationService(repos.User, logger)
	return &Services{
		Auth:       NewAuthService(repos.User, jwtService, logger),
		Doubt:      NewDoubtService(repos.Doubt, repos.User, reputation, logger),
		Chat:       NewChatService(repos.Message, repos.User, repos.Doubt, hub, logger),
		Reputation: reputation,
		Stats:      NewStatsService(repos.Stats, repos.Doubt, repos.User, logger),
	}
}
