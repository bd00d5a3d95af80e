package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

// UserRepository handles database operations for users and their badges
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, password, name, rating, total_reviews,
	doubts_asked, doubts_solved, total_views, helpful_responses,
	is_online, last_seen, last_active, created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.Rating,
		&user.TotalReviews,
		&user.DoubtsAsked,
		&user.DoubtsSolved,
		&user.TotalViews,
		&user.HelpfulResponses,
		&user.IsOnline,
		&user.LastSeen,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. Rating starts at 5.0 per the reputation model.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password, name)
		VALUES ($1, $2, $3)
		RETURNING id, rating, total_reviews, is_online, last_seen, last_active, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, user.Email, user.Password, user.Name).Scan(
		&user.ID,
		&user.Rating,
		&user.TotalReviews,
		&user.IsOnline,
		&user.LastSeen,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// FindByID retrieves a user with their badges
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	badges, err := r.ListBadges(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Badges = badges
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// IncrementDoubtsAsked atomically bumps the asked counter and stamps activity
func (r *UserRepository) IncrementDoubtsAsked(ctx context.Context, userID int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET doubts_asked = doubts_asked + 1, last_active = NOW(), updated_at = NOW()
		WHERE id = $1`, userID)
}

// IncrementDoubtsSolved atomically bumps the solved counter and stamps activity
func (r *UserRepository) IncrementDoubtsSolved(ctx context.Context, userID int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET doubts_solved = doubts_solved + 1, last_active = NOW(), updated_at = NOW()
		WHERE id = $1`, userID)
}

// AddViews atomically adds to the user's accumulated view counter
func (r *UserRepository) AddViews(ctx context.Context, userID int64, views int) error {
	return r.exec(ctx, `
		UPDATE users
		SET total_views = total_views + $2, updated_at = NOW()
		WHERE id = $1`, userID, views)
}

// IncrementHelpfulResponses atomically bumps the helpful-response counter
func (r *UserRepository) IncrementHelpfulResponses(ctx context.Context, userID int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET helpful_responses = helpful_responses + 1, updated_at = NOW()
		WHERE id = $1`, userID)
}

// ApplyReview folds a new rating into the running average in one atomic
// statement and returns the updated user
func (r *UserRepository) ApplyReview(ctx context.Context, userID int64, rating int) (*models.User, error) {
	query := `
		UPDATE users
		SET rating = (rating * total_reviews + $2) / (total_reviews + 1),
		    total_reviews = total_reviews + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, userID, rating))
}

// AwardBadge inserts a badge unless the user already has one with that name.
// Returns true when the badge was newly awarded.
func (r *UserRepository) AwardBadge(ctx context.Context, userID int64, name, description string) (bool, error) {
	query := `
		INSERT INTO badges (user_id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, userID, name, description)
	if err != nil {
		return false, fmt.Errorf("error awarding badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListBadges returns all badges earned by a user, oldest first
func (r *UserRepository) ListBadges(ctx context.Context, userID int64) ([]models.Badge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, description, earned_at
		FROM badges
		WHERE user_id = $1
		ORDER BY earned_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing badges: %w", err)
	}
	defer rows.Close()

	var badges []models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("error scanning badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// SetOnlineStatus updates the user's presence flag and timestamps
func (r *UserRepository) SetOnlineStatus(ctx context.Context, userID int64, isOnline bool) error {
	return r.exec(ctx, `
		UPDATE users
		SET is_online = $2, last_seen = NOW(), last_active = NOW(), updated_at = NOW()
		WHERE id = $1`, userID, isOnline)
}

// OnlineUsers lists users currently marked online, most recently seen first
func (r *UserRepository) OnlineUsers(ctx context.Context, limit int) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_online = TRUE
		ORDER BY last_seen DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing online users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
