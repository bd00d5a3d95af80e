package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
	"github.com/doubtmate/doubtmate/internal/pkg/auth"
)

// AuthService handles registration, login and token issuance
type AuthService struct {
	users      UserStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// Register creates a new account and returns an access token for it
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashed,
		Name:     strings.TrimSpace(req.Name),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("User registered")
	return s.tokenResponse(user)
}

// Login verifies credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.logger.Info().Int64("userID", user.ID).Msg("User logged in")
	return s.tokenResponse(user)
}

func (s *AuthService) tokenResponse(user *models.User) (*dto.TokenResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        dto.ToUserResponse(user),
	}, nil
}
