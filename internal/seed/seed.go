package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/doubtmate/doubtmate/internal/app/models"
	appRepos "github.com/doubtmate/doubtmate/internal/app/repositories"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
	"github.com/doubtmate/doubtmate/internal/pkg/auth"
)

// CreateDefaultData creates a demo account on first start so a fresh
// install has something to log in with
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")

	password, err := auth.HashPassword("demo123")
	if err != nil {
		return err
	}

	demo := &appModels.User{
		Email:    "demo@doubtmate.app",
		Password: password,
		Name:     "Demo Student",
	}
	if err := userRepo.Create(ctx, demo); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Debug().Msg("Demo user already exists, skipping")
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating demo user")
		return err
	}

	lgr.Info().Int64("userID", demo.ID).Msg("Demo user created")
	return nil
}
