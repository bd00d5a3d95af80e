package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

// badgeRule ties a badge to the condition that earns it. Thresholds are
// checked against the user's current counters; badges are never revoked.
type badgeRule struct {
	name        string
	description string
	qualifies   func(u *models.User) bool
}

var badgeRules = []badgeRule{
	{
		name:        models.BadgeHelper,
		description: "Solved 10+ doubts",
		qualifies:   func(u *models.User) bool { return u.DoubtsSolved >= 10 },
	},
	{
		name:        models.BadgeExpertHelper,
		description: "Solved 50+ doubts",
		qualifies:   func(u *models.User) bool { return u.DoubtsSolved >= 50 },
	},
	{
		name:        models.BadgeTopRated,
		description: "Maintained a 4.5+ rating over 10+ reviews",
		qualifies:   func(u *models.User) bool { return u.Rating >= 4.5 && u.TotalReviews >= 10 },
	},
}

// earnedBadges returns the rules the user's counters currently satisfy
func earnedBadges(u *models.User) []badgeRule {
	var earned []badgeRule
	for _, rule := range badgeRules {
		if rule.qualifies(u) {
			earned = append(earned, rule)
		}
	}
	return earned
}

// ReputationService maintains user ratings, helpfulness counters and
// achievement badges
type ReputationService struct {
	users  UserStore
	logger zerolog.Logger
}

// NewReputationService creates a new ReputationService
func NewReputationService(users UserStore, logger zerolog.Logger) *ReputationService {
	return &ReputationService{
		users:  users,
		logger: logger.With().Str("service", "reputation").Logger(),
	}
}

// GetProfile returns a user's public profile with their badges
func (s *ReputationService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// AddReview folds a 1-5 rating into the target user's running average.
// Users cannot review themselves. Badges are re-evaluated afterwards
// since the Top Rated threshold depends on rating and review count.
func (s *ReputationService) AddReview(ctx context.Context, targetID, reviewerID int64, req *dto.ReviewRequest) (*dto.UserResponse, error) {
	if targetID == reviewerID {
		return nil, apperrors.NewForbiddenError("You cannot review yourself")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.NewValidationError("rating", "rating must be between 1 and 5")
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return nil, err
	}

	updated, err := s.users.ApplyReview(ctx, targetID, req.Rating)
	if err != nil {
		return nil, err
	}

	if err := s.EvaluateBadges(ctx, updated); err != nil {
		s.logger.Warn().Err(err).Int64("userID", targetID).Msg("Failed to evaluate badges after review")
	}

	s.logger.Info().
		Int64("targetID", targetID).
		Int64("reviewerID", reviewerID).
		Int("rating", req.Rating).
		Msg("Review applied")
	return s.GetProfile(ctx, targetID)
}

// OnResponseAccepted updates the responder's reputation after one of
// their responses is accepted: the solved counter goes up and badges
// are re-evaluated. The helpful-response counter is a separate metric
// and is not touched here.
func (s *ReputationService) OnResponseAccepted(ctx context.Context, responderID int64) error {
	if err := s.users.IncrementDoubtsSolved(ctx, responderID); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, responderID)
	if err != nil {
		return err
	}
	return s.EvaluateBadges(ctx, user)
}

// EvaluateBadges awards every badge the user's counters entitle them to
// but do not yet have. Safe to call repeatedly; duplicate awards are
// swallowed by the store.
func (s *ReputationService) EvaluateBadges(ctx context.Context, user *models.User) error {
	for _, rule := range earnedBadges(user) {
		awarded, err := s.users.AwardBadge(ctx, user.ID, rule.name, rule.description)
		if err != nil {
			return err
		}
		if awarded {
			s.logger.Info().
				Int64("userID", user.ID).
				Str("badge", rule.name).
				Msg("Badge awarded")
		}
	}
	return nil
}

// SetOnlineStatus updates the caller's presence flag
func (s *ReputationService) SetOnlineStatus(ctx context.Context, userID int64, isOnline bool) error {
	return s.users.SetOnlineStatus(ctx, userID, isOnline)
}
