package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/doubtmate/doubtmate/internal/app/controllers"
	appMigrations "github.com/doubtmate/doubtmate/internal/app/migrations"
	appRepos "github.com/doubtmate/doubtmate/internal/app/repositories"
	appRoutes "github.com/doubtmate/doubtmate/internal/app/routes"
	appServices "github.com/doubtmate/doubtmate/internal/app/services"
	"github.com/doubtmate/doubtmate/internal/config"
	"github.com/doubtmate/doubtmate/internal/db"
	appMiddleware "github.com/doubtmate/doubtmate/internal/middleware"
	pkgAuth "github.com/doubtmate/doubtmate/internal/pkg/auth"
	"github.com/doubtmate/doubtmate/internal/pkg/helpers"
	"github.com/doubtmate/doubtmate/internal/pkg/logger"
	"github.com/doubtmate/doubtmate/internal/pkg/websocket"
	"github.com/doubtmate/doubtmate/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos           *appRepos.Repositories
	Services        *appServices.Services
	Hub             *websocket.Hub
	JWTService      *pkgAuth.JWTService
	AuthController  *appControllers.AuthController
	DoubtController *appControllers.DoubtController
	ChatController  *appControllers.ChatController
	UserController  *appControllers.UserController
	WSHandler       *websocket.Handler
	AuthMiddleware  *appMiddleware.AuthMiddleware
	Logger          zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, services, the relay hub and
// the controllers. The hub's run loop is started here.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(lgr)
	go deps.Hub.Run()

	deps.Services = appServices.NewServices(deps.Repos, deps.Hub, deps.JWTService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.Services.Auth)
	deps.DoubtController = appControllers.NewDoubtController(deps.Services.Doubt, deps.Services.Stats)
	deps.ChatController = appControllers.NewChatController(deps.Services.Chat)
	deps.UserController = appControllers.NewUserController(deps.Services.Reputation, deps.Services.Stats)
	deps.WSHandler = websocket.NewHandler(deps.Hub, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())
	router.Use(appMiddleware.CORS())

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.DoubtController,
		deps.ChatController,
		deps.UserController,
		deps.WSHandler,
		deps.AuthMiddleware,
	)

	return router
}
