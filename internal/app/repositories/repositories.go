package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles all repository instances for dependency injection
type Repositories struct {
	User    *UserRepository
	Doubt   *DoubtRepository
	Message *MessageRepository
	Stats   *StatsRepository
}

// NewRepositories creates all repositories sharing one connection pool
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Doubt:   NewDoubtRepository(db),
		Message: NewMessageRepository(db),
		Stats:   NewStatsRepository(db),
	}
}
