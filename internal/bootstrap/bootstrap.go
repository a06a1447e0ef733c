package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/shelfclub/internal/app/auth"
	appControllers "github.com/yigit/shelfclub/internal/app/controllers"
	appMigrations "github.com/yigit/shelfclub/internal/app/migrations"
	appRepos "github.com/yigit/shelfclub/internal/app/repositories"
	appRoutes "github.com/yigit/shelfclub/internal/app/routes"
	"github.com/yigit/shelfclub/internal/app/scheduler"
	appServices "github.com/yigit/shelfclub/internal/app/services"
	"github.com/yigit/shelfclub/internal/config"
	"github.com/yigit/shelfclub/internal/db"
	appMiddleware "github.com/yigit/shelfclub/internal/middleware"
	pkgAuth "github.com/yigit/shelfclub/internal/pkg/auth"
	"github.com/yigit/shelfclub/internal/pkg/helpers"
	"github.com/yigit/shelfclub/internal/pkg/logger"
	"github.com/yigit/shelfclub/internal/pkg/websocket"
	"github.com/yigit/shelfclub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	SuggestionService    appServices.SuggestionService
	VoteService          appServices.VoteService
	VotingCycleService   appServices.VotingCycleService
	WinnerService        appServices.WinnerSelectionService
	SuggestionController *appControllers.SuggestionController
	VotingController     *appControllers.VotingController
	ClubBookController   *appControllers.ClubBookController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	JWTService           *pkgAuth.JWTService
	AuthzService         *appAuth.AuthorizationService
	Hub                  *websocket.Hub
	Sweeper              *scheduler.Sweeper
	Logger               zerolog.Logger
}

// ConfigPath returns the config file location, overridable with CONFIG_PATH
func ConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return filepath.Join("configs", "config.yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ParseConfig(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds demo data outside production.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if !cfg.IsProduction() {
		if err := seed.CreateDemoData(ctx, database.Pool, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Hub = websocket.NewHub(logger.Component("websocket_hub"), websocket.DefaultEventBuffer)
	store := appServices.NewPostgresStore(appRepos.NewStore(database))
	clock := helpers.SystemClock{}
	deps.AuthzService = appAuth.NewAuthorizationService(lgr)

	defaultDuration, maxDuration := cfg.VotingDurations()
	deps.SuggestionService = appServices.NewSuggestionService(store, deps.AuthzService, deps.Hub, clock, logger.Component("suggestion_service"))
	deps.VoteService = appServices.NewVoteService(store, deps.AuthzService, deps.Hub, clock, logger.Component("vote_service"))
	deps.VotingCycleService = appServices.NewVotingCycleService(store, deps.AuthzService, deps.Hub, clock, appServices.VotingConfig{
		DefaultDuration: defaultDuration,
		MaxDuration:     maxDuration,
	}, logger.Component("voting_cycle_service"))
	deps.WinnerService = appServices.NewWinnerSelectionService(store, deps.AuthzService, deps.Hub, clock, logger.Component("winner_selection_service"))

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.SuggestionController = appControllers.NewSuggestionController(deps.SuggestionService, deps.VoteService)
	deps.VotingController = appControllers.NewVotingController(
		deps.VotingCycleService,
		deps.WinnerService,
		websocket.NewHandler(deps.Hub, logger.Component("websocket_handler")),
		logger.Component("voting_controller"),
	)
	deps.ClubBookController = appControllers.NewClubBookController(deps.WinnerService)

	if cfg.Voting.SweepEnabled {
		interval := helpers.ParseDuration(cfg.Voting.SweepInterval, 5*time.Minute)
		deps.Sweeper = scheduler.NewSweeper(deps.VotingCycleService, interval, lgr)
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.SuggestionController,
		deps.VotingController,
		deps.ClubBookController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
