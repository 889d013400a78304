package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/claimguard/internal/config"
	"github.com/templui/claimguard/internal/db"
	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/middleware"
	"github.com/templui/claimguard/internal/repository"
	"github.com/templui/claimguard/internal/risk"
	"github.com/templui/claimguard/internal/service"
	"github.com/templui/claimguard/internal/storage"
)

type App struct {
	Cfg     *config.Config
	DB      *sqlx.DB
	Store   *repository.Store
	Storage storage.Storage
	Model   *inference.Handle

	AuthService     *service.AuthService
	UserService     *service.UserService
	EmailService    *service.EmailService
	FileService     *service.FileService
	ClaimService    *service.ClaimService
	AnalysisService *service.AnalysisService

	AuthLimiter    *middleware.RateLimiter
	AnalyzeLimiter *middleware.RateLimiter
}

// Options override collaborators built from config. Tests use them to plug
// in a fake model.
type Options struct {
	Model *inference.Handle
}

func New(ctx context.Context, cfg *config.Config, opts ...Options) (*App, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repository.NewStore(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Model handle, loaded on first use
	model := o.Model
	if model == nil {
		model = inference.NewHandle(inference.ServingLoader(cfg.ModelURL, cfg.ModelName, cfg.ImageSize))
	}

	proxies, err := middleware.ParseProxies(cfg.TrustedProxies)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	// Services
	mapper := risk.NewMapper(risk.StubVerifier{})
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.NotifyEmail,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileStorage, cfg.MaxUploadSize)
	authService := service.NewAuthService(store.Users(), cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)
	userService := service.NewUserService(store.Users())
	claimService := service.NewClaimService(store, fileService, model, mapper, emailService, service.ClaimOptions{
		InferenceTimeout: cfg.InferenceTimeout,
	})
	analysisService := service.NewAnalysisService(model, mapper, fileService, service.AnalysisOptions{
		MaxBatchImages:   cfg.MaxBatchImages,
		InferenceTimeout: cfg.InferenceTimeout,
	})

	return &App{
		Cfg:             cfg,
		DB:              database,
		Store:           store,
		Storage:         fileStorage,
		Model:           model,
		AuthService:     authService,
		UserService:     userService,
		EmailService:    emailService,
		FileService:     fileService,
		ClaimService:    claimService,
		AnalysisService: analysisService,
		AuthLimiter:     middleware.NewRateLimiter(5, 15*time.Minute).TrustProxies(proxies),
		AnalyzeLimiter:  middleware.NewRateLimiter(60, time.Minute).TrustProxies(proxies),
	}, nil
}

func (a *App) Close() error {
	a.AuthLimiter.Close()
	a.AnalyzeLimiter.Close()

	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
