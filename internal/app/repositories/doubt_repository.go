package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/db"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

// DoubtRepository handles database operations for doubts and their
// embedded responses and votes. All mutations of a doubt's sub-state go
// through here and lock the owning doubt row, preserving the
// one-writer-per-document model.
type DoubtRepository struct {
	db *pgxpool.Pool
}

// NewDoubtRepository creates a new DoubtRepository
func NewDoubtRepository(db *pgxpool.Pool) *DoubtRepository {
	return &DoubtRepository{db: db}
}

// Create inserts a new doubt with status open, no responses and no votes
func (r *DoubtRepository) Create(ctx context.Context, doubt *models.Doubt) error {
	query := `
		INSERT INTO doubts (author_id, subject, title, description, priority, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, views, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		doubt.AuthorID,
		doubt.Subject,
		doubt.Title,
		doubt.Description,
		doubt.Priority,
		doubt.Tags,
	).Scan(&doubt.ID, &doubt.Status, &doubt.Views, &doubt.CreatedAt, &doubt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating doubt: %w", err)
	}
	return nil
}

// GetByID retrieves a doubt with its author summary, embedded responses
// (with their author summaries) and vote sets
func (r *DoubtRepository) GetByID(ctx context.Context, id int64) (*models.Doubt, error) {
	query := `
		SELECT
			d.id, d.author_id, d.subject, d.title, d.description, d.status,
			d.priority, d.tags, d.views, d.solved_by, d.solved_at,
			d.created_at, d.updated_at,
			u.id, u.name, u.rating
		FROM doubts d
		JOIN users u ON d.author_id = u.id
		WHERE d.id = $1
	`

	var doubt models.Doubt
	var author models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doubt.ID,
		&doubt.AuthorID,
		&doubt.Subject,
		&doubt.Title,
		&doubt.Description,
		&doubt.Status,
		&doubt.Priority,
		&doubt.Tags,
		&doubt.Views,
		&doubt.SolvedByID,
		&doubt.SolvedAt,
		&doubt.CreatedAt,
		&doubt.UpdatedAt,
		&author.ID,
		&author.Name,
		&author.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDoubtNotFound
		}
		return nil, fmt.Errorf("error retrieving doubt: %w", err)
	}
	doubt.Author = &author

	if err := r.loadResponses(ctx, &doubt); err != nil {
		return nil, err
	}
	if err := r.loadVotes(ctx, &doubt); err != nil {
		return nil, err
	}
	return &doubt, nil
}

func (r *DoubtRepository) loadResponses(ctx context.Context, doubt *models.Doubt) error {
	rows, err := r.db.Query(ctx, `
		SELECT
			dr.id, dr.doubt_id, dr.user_id, dr.content, dr.is_accepted,
			dr.accepted_at, dr.created_at, dr.updated_at,
			u.id, u.name, u.rating
		FROM doubt_responses dr
		JOIN users u ON dr.user_id = u.id
		WHERE dr.doubt_id = $1
		ORDER BY dr.created_at ASC, dr.id ASC`, doubt.ID)
	if err != nil {
		return fmt.Errorf("error loading responses: %w", err)
	}
	defer rows.Close()

	doubt.Responses = []models.Response{}
	for rows.Next() {
		var resp models.Response
		var user models.User
		err := rows.Scan(
			&resp.ID,
			&resp.DoubtID,
			&resp.UserID,
			&resp.Content,
			&resp.IsAccepted,
			&resp.AcceptedAt,
			&resp.CreatedAt,
			&resp.UpdatedAt,
			&user.ID,
			&user.Name,
			&user.Rating,
		)
		if err != nil {
			return fmt.Errorf("error scanning response: %w", err)
		}
		resp.User = &user
		doubt.Responses = append(doubt.Responses, resp)
	}
	return rows.Err()
}

func (r *DoubtRepository) loadVotes(ctx context.Context, doubt *models.Doubt) error {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, vote_type
		FROM doubt_votes
		WHERE doubt_id = $1`, doubt.ID)
	if err != nil {
		return fmt.Errorf("error loading votes: %w", err)
	}
	defer rows.Close()

	doubt.Upvotes = []int64{}
	doubt.Downvotes = []int64{}
	for rows.Next() {
		var userID int64
		var voteType models.VoteType
		if err := rows.Scan(&userID, &voteType); err != nil {
			return fmt.Errorf("error scanning vote: %w", err)
		}
		if voteType == models.VoteUp {
			doubt.Upvotes = append(doubt.Upvotes, userID)
		} else {
			doubt.Downvotes = append(doubt.Downvotes, userID)
		}
	}
	return rows.Err()
}

var doubtSortColumns = map[string]string{
	"createdAt": "d.created_at",
	"views":     "d.views",
	"priority":  "d.priority",
	"updatedAt": "d.updated_at",
}

// List returns a page of doubts matching the filter plus the total count.
// Embedded responses are not loaded; only their count is.
func (r *DoubtRepository) List(ctx context.Context, filter *dto.ListDoubtsRequest, offset uint64, limit int) ([]*models.Doubt, int64, error) {
	base := squirrel.Select().
		From("doubts d").
		Join("users u ON d.author_id = u.id").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Subject != "" {
		base = base.Where("d.subject = ?", filter.Subject)
	}
	if filter.Status != "" {
		base = base.Where("d.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		base = base.Where("d.priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(
			squirrel.Or{
				squirrel.ILike{"d.title": pattern},
				squirrel.ILike{"d.description": pattern},
				squirrel.ILike{"d.subject": pattern},
			},
		)
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building count SQL: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting doubts: %w", err)
	}

	orderColumn, ok := doubtSortColumns[filter.SortBy]
	if !ok {
		orderColumn = "d.created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	listSQL, listArgs, err := base.
		Columns(
			"d.id", "d.author_id", "d.subject", "d.title", "d.description",
			"d.status", "d.priority", "d.tags", "d.views", "d.solved_by",
			"d.solved_at", "d.created_at", "d.updated_at",
			"u.id AS user_id", "u.name", "u.rating",
			"(SELECT COUNT(*) FROM doubt_responses dr WHERE dr.doubt_id = d.id) AS response_count",
		).
		OrderBy(orderColumn + " " + direction).
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building list SQL: %w", err)
	}

	doubts, err := r.queryDoubtSummaries(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return doubts, total, nil
}

// MostViewed returns doubts ordered by view count, for trending
func (r *DoubtRepository) MostViewed(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return r.listTop(ctx, "d.views DESC", limit)
}

// MostAnswered returns doubts ordered by response count, for trending
func (r *DoubtRepository) MostAnswered(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return r.listTop(ctx, "response_count DESC", limit)
}

// Recent returns the newest doubts, for trending
func (r *DoubtRepository) Recent(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return r.listTop(ctx, "d.created_at DESC", limit)
}

func (r *DoubtRepository) listTop(ctx context.Context, orderBy string, limit int) ([]*models.Doubt, error) {
	sql, args, err := squirrel.Select(
		"d.id", "d.author_id", "d.subject", "d.title", "d.description",
		"d.status", "d.priority", "d.tags", "d.views", "d.solved_by",
		"d.solved_at", "d.created_at", "d.updated_at",
		"u.id AS user_id", "u.name", "u.rating",
		"(SELECT COUNT(*) FROM doubt_responses dr WHERE dr.doubt_id = d.id) AS response_count",
	).
		From("doubts d").
		Join("users u ON d.author_id = u.id").
		OrderBy(orderBy).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.queryDoubtSummaries(ctx, sql, args...)
}

func (r *DoubtRepository) queryDoubtSummaries(ctx context.Context, sql string, args ...interface{}) ([]*models.Doubt, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing doubts: %w", err)
	}
	defer rows.Close()

	var doubts []*models.Doubt
	for rows.Next() {
		var doubt models.Doubt
		var author models.User
		err := rows.Scan(
			&doubt.ID,
			&doubt.AuthorID,
			&doubt.Subject,
			&doubt.Title,
			&doubt.Description,
			&doubt.Status,
			&doubt.Priority,
			&doubt.Tags,
			&doubt.Views,
			&doubt.SolvedByID,
			&doubt.SolvedAt,
			&doubt.CreatedAt,
			&doubt.UpdatedAt,
			&author.ID,
			&author.Name,
			&author.Rating,
			&doubt.ResponseCount,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning doubt: %w", err)
		}
		doubt.Author = &author
		doubts = append(doubts, &doubt)
	}
	return doubts, rows.Err()
}

// AddResponse appends a response to a doubt. The doubt row is locked for
// the duration so concurrent responders cannot lose updates.
func (r *DoubtRepository) AddResponse(ctx context.Context, doubtID, userID int64, content string) (*models.Response, error) {
	var resp models.Response
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockDoubt(ctx, tx, doubtID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO doubt_responses (doubt_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, doubt_id, user_id, content, is_accepted, accepted_at, created_at, updated_at`,
			doubtID, userID, content,
		).Scan(
			&resp.ID, &resp.DoubtID, &resp.UserID, &resp.Content,
			&resp.IsAccepted, &resp.AcceptedAt, &resp.CreatedAt, &resp.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("error inserting response: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE doubts SET updated_at = NOW() WHERE id = $1`, doubtID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AcceptResponse marks a response accepted and resolves the doubt in a
// single transaction. A previously accepted response on the same doubt
// keeps its flag; solved_by tracks the latest acceptance only.
func (r *DoubtRepository) AcceptResponse(ctx context.Context, doubtID, responseID int64, acceptedAt time.Time) (*models.Response, error) {
	var resp models.Response
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockDoubt(ctx, tx, doubtID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			UPDATE doubt_responses
			SET is_accepted = TRUE, accepted_at = $3, updated_at = NOW()
			WHERE id = $2 AND doubt_id = $1
			RETURNING id, doubt_id, user_id, content, is_accepted, accepted_at, created_at, updated_at`,
			doubtID, responseID, acceptedAt,
		).Scan(
			&resp.ID, &resp.DoubtID, &resp.UserID, &resp.Content,
			&resp.IsAccepted, &resp.AcceptedAt, &resp.CreatedAt, &resp.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrResponseNotFound
			}
			return fmt.Errorf("error accepting response: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE doubts
			SET status = $2, solved_by = $3, solved_at = $4, updated_at = NOW()
			WHERE id = $1`,
			doubtID, models.DoubtStatusResolved, resp.UserID, acceptedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Vote records a user's vote on a doubt. The upsert keyed on
// (doubt_id, user_id) guarantees a voter is in exactly one of the two
// sets afterwards, so repeated identical votes converge.
func (r *DoubtRepository) Vote(ctx context.Context, doubtID, userID int64, voteType models.VoteType) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockDoubt(ctx, tx, doubtID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO doubt_votes (doubt_id, user_id, vote_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (doubt_id, user_id) DO UPDATE SET vote_type = EXCLUDED.vote_type`,
			doubtID, userID, voteType)
		if err != nil {
			return fmt.Errorf("error recording vote: %w", err)
		}
		return nil
	})
}

// IncrementViews bumps the view counter. Races between concurrent viewers
// are tolerated; each increment is itself atomic.
func (r *DoubtRepository) IncrementViews(ctx context.Context, doubtID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE doubts SET views = views + 1 WHERE id = $1`, doubtID)
	if err != nil {
		return fmt.Errorf("error incrementing views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDoubtNotFound
	}
	return nil
}

// Delete removes a doubt together with its responses and votes
func (r *DoubtRepository) Delete(ctx context.Context, doubtID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM doubts WHERE id = $1`, doubtID)
	if err != nil {
		return fmt.Errorf("error deleting doubt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDoubtNotFound
	}
	return nil
}

// Subjects returns the distinct subjects in use, alphabetically
func (r *DoubtRepository) Subjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT subject FROM doubts ORDER BY subject ASC`)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("error scanning subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// lockDoubt takes the row lock that serializes mutations of one doubt's
// embedded sub-state
func lockDoubt(ctx context.Context, tx pgx.Tx, doubtID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM doubts WHERE id = $1 FOR UPDATE`, doubtID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrDoubtNotFound
		}
		return fmt.Errorf("error locking doubt: %w", err)
	}
	return nil
}
