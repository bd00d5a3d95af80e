package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
	"github.com/doubtmate/doubtmate/internal/pkg/helpers"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
	responseMinLen    = 5
)

// DoubtService implements the doubt lifecycle: creation, listing,
// responses, acceptance, voting and view accounting
type DoubtService struct {
	doubts     DoubtStore
	users      UserStore
	reputation *ReputationService
	logger     zerolog.Logger
}

// NewDoubtService creates a new DoubtService
func NewDoubtService(doubts DoubtStore, users UserStore, reputation *ReputationService, logger zerolog.Logger) *DoubtService {
	return &DoubtService{
		doubts:     doubts,
		users:      users,
		reputation: reputation,
		logger:     logger.With().Str("service", "doubt").Logger(),
	}
}

// CreateDoubt validates and stores a new doubt for the author
func (s *DoubtService) CreateDoubt(ctx context.Context, authorID int64, req *dto.CreateDoubtRequest) (*dto.DoubtResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	if subject == "" {
		return nil, apperrors.NewValidationError("subject", "subject is required")
	}
	if n := utf8.RuneCountInString(title); n < titleMinLen || n > titleMaxLen {
		return nil, apperrors.NewValidationError("title", "title must be between 5 and 200 characters")
	}
	if utf8.RuneCountInString(description) < descriptionMinLen {
		return nil, apperrors.NewValidationError("description", "description must be at least 10 characters")
	}

	priority := models.DoubtPriority(req.Priority)
	if priority == "" {
		priority = models.DoubtPriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("priority", "priority must be one of low, medium, high, urgent")
	}

	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	doubt := &models.Doubt{
		AuthorID:    authorID,
		Subject:     subject,
		Title:       title,
		Description: description,
		Priority:    priority,
		Tags:        tags,
	}
	if err := s.doubts.Create(ctx, doubt); err != nil {
		return nil, err
	}
	doubt.Author = author

	if err := s.users.IncrementDoubtsAsked(ctx, authorID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", authorID).Msg("Failed to bump asked counter")
	}

	s.logger.Info().Int64("doubtID", doubt.ID).Int64("authorID", authorID).Msg("Doubt created")
	resp := dto.ToDoubtResponse(doubt)
	return &resp, nil
}

// ListDoubts returns a filtered, sorted page of doubts
func (s *DoubtService) ListDoubts(ctx context.Context, req *dto.ListDoubtsRequest) (*dto.DoubtListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(req.Page, req.PageSize)
	doubts, total, err := s.doubts.List(ctx, req, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DoubtResponse, 0, len(doubts))
	for _, d := range doubts {
		items = append(items, dto.ToDoubtResponse(d))
	}

	return &dto.DoubtListResponse{
		Doubts:     items,
		Pagination: helpers.NewPaginationInfo(total, req.Page, limit),
	}, nil
}

// GetDoubt returns one doubt with its responses and votes. A fetch by
// anyone other than the author counts as a view: the doubt's counter and
// the author's accumulated views both go up. Views are not deduplicated
// per viewer.
func (s *DoubtService) GetDoubt(ctx context.Context, doubtID, viewerID int64) (*dto.DoubtResponse, error) {
	doubt, err := s.doubts.GetByID(ctx, doubtID)
	if err != nil {
		return nil, err
	}

	if viewerID != doubt.AuthorID {
		if err := s.doubts.IncrementViews(ctx, doubtID); err != nil {
			s.logger.Warn().Err(err).Int64("doubtID", doubtID).Msg("Failed to bump view counter")
		} else {
			doubt.Views++
		}
		if err := s.users.AddViews(ctx, doubt.AuthorID, 1); err != nil {
			s.logger.Warn().Err(err).Int64("userID", doubt.AuthorID).Msg("Failed to bump author view total")
		}
	}

	resp := dto.ToDoubtResponse(doubt)
	return &resp, nil
}

// AddResponse appends a response to an open doubt. Doubt authors cannot
// respond to themselves.
func (s *DoubtService) AddResponse(ctx context.Context, doubtID, userID int64, req *dto.AddResponseRequest) (*dto.DoubtResponse, error) {
	content := strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(content) < responseMinLen {
		return nil, apperrors.NewValidationError("content", "response must be at least 5 characters")
	}

	doubt, err := s.doubts.GetByID(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	if doubt.AuthorID == userID {
		return nil, apperrors.NewForbiddenError("You cannot respond to your own doubt")
	}

	if _, err := s.doubts.AddResponse(ctx, doubtID, userID, content); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("doubtID", doubtID).Int64("userID", userID).Msg("Response added")
	return s.reload(ctx, doubtID)
}

// AcceptResponse marks a response as the accepted answer and resolves the
// doubt. Only the doubt author may accept. The responder's reputation is
// updated after the acceptance is committed.
func (s *DoubtService) AcceptResponse(ctx context.Context, doubtID, responseID, requesterID int64) (*dto.DoubtResponse, error) {
	doubt, err := s.doubts.GetByID(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	if doubt.AuthorID != requesterID {
		return nil, apperrors.NewUnauthorizedError("Only the doubt author can accept a response")
	}
	if doubt.ResponseByID(responseID) == nil {
		return nil, apperrors.ErrResponseNotFound
	}

	resp, err := s.doubts.AcceptResponse(ctx, doubtID, responseID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.reputation.OnResponseAccepted(ctx, resp.UserID); err != nil {
		// The acceptance itself is committed; reputation catches up on
		// the next acceptance at worst
		s.logger.Warn().Err(err).Int64("userID", resp.UserID).Msg("Failed to update responder reputation")
	}

	s.logger.Info().
		Int64("doubtID", doubtID).
		Int64("responseID", responseID).
		Int64("responderID", resp.UserID).
		Msg("Response accepted")
	return s.reload(ctx, doubtID)
}

// Vote records the caller's vote on a doubt. Re-voting the same direction
// is a no-op; voting the other direction moves the membership.
func (s *DoubtService) Vote(ctx context.Context, doubtID, userID int64, req *dto.VoteRequest) (*dto.DoubtResponse, error) {
	voteType := models.VoteType(req.VoteType)
	if !models.ValidVoteType(voteType) {
		return nil, apperrors.NewValidationError("voteType", "voteType must be upvote or downvote")
	}

	if err := s.doubts.Vote(ctx, doubtID, userID, voteType); err != nil {
		return nil, err
	}
	return s.reload(ctx, doubtID)
}

// DeleteDoubt removes a doubt with all its responses and votes. Author only.
func (s *DoubtService) DeleteDoubt(ctx context.Context, doubtID, requesterID int64) error {
	doubt, err := s.doubts.GetByID(ctx, doubtID)
	if err != nil {
		return err
	}
	if doubt.AuthorID != requesterID {
		return apperrors.NewForbiddenError("Only the doubt author can delete it")
	}

	if err := s.doubts.Delete(ctx, doubtID); err != nil {
		return err
	}
	s.logger.Info().Int64("doubtID", doubtID).Msg("Doubt deleted")
	return nil
}

// ListSubjects returns the distinct subjects doubts have been filed under
func (s *DoubtService) ListSubjects(ctx context.Context) (*dto.SubjectListResponse, error) {
	subjects, err := s.doubts.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []string{}
	}
	return &dto.SubjectListResponse{Subjects: subjects}, nil
}

func (s *DoubtService) reload(ctx context.Context, doubtID int64) (*dto.DoubtResponse, error) {
	doubt, err := s.doubts.GetByID(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToDoubtResponse(doubt)
	return &resp, nil
}
